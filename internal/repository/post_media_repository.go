package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postdeck/internal/models"
)

type PostMediaRepository interface {
	ReplaceForPost(ctx context.Context, postID int64, mediaIDs []int64) error
	ListByPostID(ctx context.Context, postID int64) ([]int64, error)
	RemoveByPostID(ctx context.Context, postID int64) error
	HasActiveReference(ctx context.Context, mediaID int64) (bool, error)
}

type postMediaRepository struct {
	db *sql.DB
}

func NewPostMediaRepository(db *sql.DB) PostMediaRepository {
	return &postMediaRepository{db: db}
}

// ReplaceForPost rewrites the ordered media attachments of a post.
// Duplicates are allowed; display_order preserves the caller's ordering.
func (r *postMediaRepository) ReplaceForPost(ctx context.Context, postID int64, mediaIDs []int64) error {
	if err := r.RemoveByPostID(ctx, postID); err != nil {
		return err
	}

	query := `
		INSERT INTO post_media (post_id, media_id, display_order)
		VALUES ($1, $2, $3)
	`
	for i, mediaID := range mediaIDs {
		if _, err := r.db.ExecContext(ctx, query, postID, mediaID, i); err != nil {
			slog.Info(err.Error())
			return err
		}
	}
	return nil
}

func (r *postMediaRepository) ListByPostID(ctx context.Context, postID int64) ([]int64, error) {
	query := `SELECT media_id FROM post_media WHERE post_id = $1 ORDER BY display_order ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var mediaIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		mediaIDs = append(mediaIDs, id)
	}
	return mediaIDs, rows.Err()
}

func (r *postMediaRepository) RemoveByPostID(ctx context.Context, postID int64) error {
	query := `DELETE FROM post_media WHERE post_id = $1`
	_, err := r.db.ExecContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// HasActiveReference reports whether any post that has not reached a
// terminal status still references the media item.
func (r *postMediaRepository) HasActiveReference(ctx context.Context, mediaID int64) (bool, error) {
	query := `
		SELECT 1 FROM post_media pm
		JOIN posts p ON p.id = pm.post_id
		WHERE pm.media_id = $1 AND p.status IN ($2, $3)
		LIMIT 1
	`

	var result int
	err := r.db.QueryRowContext(ctx, query, mediaID, models.PostStatusScheduled, models.PostStatusPublishing).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}
