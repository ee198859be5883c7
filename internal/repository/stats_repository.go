package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postdeck/internal/models"
)

type StatsRepository interface {
	Upsert(ctx context.Context, stats *models.WorkspaceStats) error
	GetByUserID(ctx context.Context, userID int64) (*models.WorkspaceStats, error)
}

type statsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

// Upsert overwrites the snapshot unconditionally: the caller always writes
// a full recount, so last write wins.
func (r *statsRepository) Upsert(ctx context.Context, stats *models.WorkspaceStats) error {
	query := `
		INSERT INTO workspace_stats (user_id, total_posts, scheduled_posts, published_posts, failed_posts, total_media, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET total_posts = EXCLUDED.total_posts,
			scheduled_posts = EXCLUDED.scheduled_posts,
			published_posts = EXCLUDED.published_posts,
			failed_posts = EXCLUDED.failed_posts,
			total_media = EXCLUDED.total_media,
			last_updated = EXCLUDED.last_updated
	`
	_, err := r.db.ExecContext(ctx, query,
		stats.UserID, stats.TotalPosts, stats.ScheduledPosts, stats.PublishedPosts,
		stats.FailedPosts, stats.TotalMedia, stats.LastUpdated,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *statsRepository) GetByUserID(ctx context.Context, userID int64) (*models.WorkspaceStats, error) {
	query := `
		SELECT user_id, total_posts, scheduled_posts, published_posts, failed_posts, total_media, last_updated
		FROM workspace_stats
		WHERE user_id = $1
	`

	var stats models.WorkspaceStats
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.UserID, &stats.TotalPosts, &stats.ScheduledPosts, &stats.PublishedPosts,
		&stats.FailedPosts, &stats.TotalMedia, &stats.LastUpdated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &stats, nil
}
