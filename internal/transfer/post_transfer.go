package transfer

import "github.com/maheshrc27/postdeck/internal/models"

// PostCreation carries the fields of a new scheduled post. ScheduledAt is
// unix milliseconds, matching what the dashboard sends.
type PostCreation struct {
	Content     string   `json:"content"`
	MediaIDs    []int64  `json:"media_ids"`
	Platforms   []string `json:"platforms"`
	ScheduledAt int64    `json:"scheduled_at"`
}

// PostUpdate is an explicit partial patch: nil means "leave unchanged".
type PostUpdate struct {
	PostID      int64     `json:"post_id"`
	Content     *string   `json:"content"`
	MediaIDs    *[]int64  `json:"media_ids"`
	Platforms   *[]string `json:"platforms"`
	ScheduledAt *int64    `json:"scheduled_at"`
}

// PostDetail is a post together with its resolved media attachments.
type PostDetail struct {
	*models.Post
	Media []*MediaView `json:"media"`
}
