package transfer

type PublishRequest struct {
	Platform  string   `json:"platform"`
	Content   string   `json:"content"`
	MediaURLs []string `json:"media_urls,omitempty"`
}

type PublishResponse struct {
	ID    string        `json:"id"`
	Error *PublishError `json:"error,omitempty"`
}

type PublishError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
