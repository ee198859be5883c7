package transfer

import "time"

// MediaUpload registers an object the client already uploaded through a
// presigned URL.
type MediaUpload struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	FileType   string `json:"file_type"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
}

// UploadTarget is a presigned PUT destination for a direct browser upload.
type UploadTarget struct {
	UploadURL  string `json:"upload_url"`
	StorageKey string `json:"storage_key"`
}

// MediaView is a media record with a fresh servable URL.
type MediaView struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	MimeType   string    `json:"mime_type"`
	FileSize   int64     `json:"file_size"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}
