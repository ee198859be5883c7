package models

import "time"

// WorkspaceStats is a cached per-user counter snapshot. It is recomputed
// from a full rescan after every counted mutation and is never the source
// of truth.
type WorkspaceStats struct {
	UserID         int64     `db:"user_id" json:"user_id"`
	TotalPosts     int       `db:"total_posts" json:"total_posts"`
	ScheduledPosts int       `db:"scheduled_posts" json:"scheduled_posts"`
	PublishedPosts int       `db:"published_posts" json:"published_posts"`
	FailedPosts    int       `db:"failed_posts" json:"failed_posts"`
	TotalMedia     int       `db:"total_media" json:"total_media"`
	LastUpdated    time.Time `db:"last_updated" json:"last_updated"`
}
