package models

import "time"

type Media struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	FileType   string    `db:"file_type" json:"file_type"` // image, video
	MimeType   string    `db:"mime_type" json:"mime_type"`
	FileSize   int64     `db:"file_size" json:"file_size"`
	StorageKey string    `db:"storage_key" json:"-"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

const (
	MaxImageSize = 10 << 20  // 10 MiB
	MaxVideoSize = 100 << 20 // 100 MiB
)
