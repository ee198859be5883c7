package models

import "time"

type Post struct {
	ID           int64      `db:"id" json:"id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	Content      string     `db:"content" json:"content"`
	MediaIDs     []int64    `db:"-" json:"media_ids"`
	Platforms    []string   `db:"platforms" json:"platforms"`
	ScheduledAt  time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Status       string     `db:"status" json:"status"` // scheduled, publishing, published, failed
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	PublishedAt  *time.Time `db:"published_at" json:"published_at,omitempty"`
	TaskID       *string    `db:"task_id" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

const (
	PlatformTwitter  = "twitter"
	PlatformLinkedin = "linkedin"
	PlatformBluesky  = "bluesky"
	PlatformThreads  = "threads"
)

func IsValidPlatform(platform string) bool {
	switch platform {
	case PlatformTwitter, PlatformLinkedin, PlatformBluesky, PlatformThreads:
		return true
	}
	return false
}

// IsTerminalStatus reports whether a post can no longer change state.
func IsTerminalStatus(status string) bool {
	return status == PostStatusPublished || status == PostStatusFailed
}

type PostMedia struct {
	PostID       int64     `db:"post_id"`
	MediaID      int64     `db:"media_id"`
	DisplayOrder int       `db:"display_order"`
	CreatedAt    time.Time `db:"created_at"`
}
