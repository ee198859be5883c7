package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postdeck/internal/models"
)

type MediaRepository interface {
	Create(ctx context.Context, media *models.Media) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Media, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Media, error)
	GetByUserIDAndType(ctx context.Context, userID int64, fileType string) ([]*models.Media, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
	Remove(ctx context.Context, id int64) error
}

type mediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) MediaRepository {
	return &mediaRepository{db: db}
}

const mediaColumns = `id, user_id, file_name, file_type, mime_type, file_size, storage_key, uploaded_at`

func (r *mediaRepository) Create(ctx context.Context, media *models.Media) (int64, error) {
	query := `
		INSERT INTO media_assets (user_id, file_name, file_type, mime_type, file_size, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		media.UserID, media.FileName, media.FileType, media.MimeType, media.FileSize, media.StorageKey,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *mediaRepository) GetByID(ctx context.Context, id int64) (*models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_assets WHERE id = $1`

	var m models.Media
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.UserID, &m.FileName, &m.FileType, &m.MimeType, &m.FileSize, &m.StorageKey, &m.UploadedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &m, nil
}

func (r *mediaRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_assets WHERE user_id = $1 ORDER BY uploaded_at DESC`
	return r.collect(ctx, query, userID)
}

func (r *mediaRepository) GetByUserIDAndType(ctx context.Context, userID int64, fileType string) ([]*models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_assets WHERE user_id = $1 AND file_type = $2 ORDER BY uploaded_at DESC`
	return r.collect(ctx, query, userID, fileType)
}

func (r *mediaRepository) collect(ctx context.Context, query string, args ...any) ([]*models.Media, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var items []*models.Media
	for rows.Next() {
		var m models.Media
		err := rows.Scan(&m.ID, &m.UserID, &m.FileName, &m.FileType, &m.MimeType, &m.FileSize, &m.StorageKey, &m.UploadedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}

func (r *mediaRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM media_assets WHERE user_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *mediaRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM media_assets WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
