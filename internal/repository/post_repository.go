package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postdeck/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	GetByUserIDAndStatus(ctx context.Context, userID int64, status string) ([]*models.Post, error)
	GetByScheduledRange(ctx context.Context, userID int64, from, to time.Time) ([]*models.Post, error)
	GetUpcoming(ctx context.Context, userID int64, after time.Time, limit int) ([]*models.Post, error)
	GetRecent(ctx context.Context, userID int64, limit int) ([]*models.Post, error)
	GetOverdueScheduled(ctx context.Context, cutoff time.Time) ([]*models.Post, error)
	GetStalePublishing(ctx context.Context, cutoff time.Time) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) (bool, error)
	SetTaskID(ctx context.Context, id int64, taskID string) (bool, error)
	MarkPublishing(ctx context.Context, id int64) (bool, error)
	MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, message string) error
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, content, platforms, scheduled_at, status, error_message, published_at, task_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Content,
		pq.Array(&post.Platforms),
		&post.ScheduledAt,
		&post.Status,
		&post.ErrorMessage,
		&post.PublishedAt,
		&post.TaskID,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) collect(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, content, platforms, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.UserID, post.Content, pq.Array(post.Platforms), post.ScheduledAt, models.PostStatusScheduled,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	return r.collect(ctx, query, userID)
}

func (r *postRepository) GetByUserIDAndStatus(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC`
	return r.collect(ctx, query, userID, status)
}

func (r *postRepository) GetByScheduledRange(ctx context.Context, userID int64, from, to time.Time) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + ` FROM posts
		WHERE user_id = $1 AND scheduled_at >= $2 AND scheduled_at <= $3
		ORDER BY scheduled_at ASC
	`
	return r.collect(ctx, query, userID, from, to)
}

func (r *postRepository) GetUpcoming(ctx context.Context, userID int64, after time.Time, limit int) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + ` FROM posts
		WHERE user_id = $1 AND status = $2 AND scheduled_at >= $3
		ORDER BY scheduled_at ASC
		LIMIT $4
	`
	return r.collect(ctx, query, userID, models.PostStatusScheduled, after, limit)
}

func (r *postRepository) GetRecent(ctx context.Context, userID int64, limit int) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + ` FROM posts
		WHERE user_id = $1 AND status IN ($2, $3)
		ORDER BY updated_at DESC
		LIMIT $4
	`
	return r.collect(ctx, query, userID, models.PostStatusPublished, models.PostStatusFailed, limit)
}

func (r *postRepository) GetOverdueScheduled(ctx context.Context, cutoff time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND scheduled_at <= $2`
	return r.collect(ctx, query, models.PostStatusScheduled, cutoff)
}

func (r *postRepository) GetStalePublishing(ctx context.Context, cutoff time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND updated_at <= $2`
	return r.collect(ctx, query, models.PostStatusPublishing, cutoff)
}

// Update patches a scheduled post. The status guard in the WHERE clause
// keeps a stale read from writing content or a task handle onto a post the
// worker has already claimed; callers see the lost race as zero rows.
func (r *postRepository) Update(ctx context.Context, post *models.Post) (bool, error) {
	query := `
		UPDATE posts
		SET content = $1,
			platforms = $2,
			scheduled_at = $3,
			task_id = $4,
			updated_at = $5
		WHERE id = $6 AND status = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		post.Content, pq.Array(post.Platforms), post.ScheduledAt, post.TaskID, time.Now(), post.ID,
		models.PostStatusScheduled,
	)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

// SetTaskID stores the publish task handle. A task handle only ever
// belongs on a scheduled post, so the write carries the same status guard
// as Update.
func (r *postRepository) SetTaskID(ctx context.Context, id int64, taskID string) (bool, error) {
	query := `UPDATE posts SET task_id = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, taskID, time.Now(), id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

// MarkPublishing claims a scheduled post for publication. The status guard
// in the WHERE clause makes the claim idempotent under duplicate task
// delivery: only the first caller sees a row change.
func (r *postRepository) MarkPublishing(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1, task_id = NULL, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1, published_at = $2, error_message = NULL, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, publishedAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkFailed(ctx context.Context, id int64, message string) error {
	query := `
		UPDATE posts
		SET status = $1, error_message = $2, published_at = NULL, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, message, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
