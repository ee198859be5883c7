package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/postdeck/internal/apperr"
	"github.com/maheshrc27/postdeck/internal/models"
	"github.com/maheshrc27/postdeck/internal/repository"
	"github.com/maheshrc27/postdeck/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// BlobStorage is the external byte store media lives in. Objects are
// addressed by opaque keys; serving and browser uploads go through
// presigned URLs.
type BlobStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PresignGet(ctx context.Context, key string) (string, error)
	PresignPut(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type MediaService interface {
	GenerateUploadURL(ctx context.Context, userID int64) (*transfer.UploadTarget, error)
	Save(ctx context.Context, userID int64, mu *transfer.MediaUpload) (*models.Media, error)
	Upload(ctx context.Context, userID int64, fileName string, data []byte) (*models.Media, error)
	Remove(ctx context.Context, userID, mediaID int64) error
	List(ctx context.Context, userID int64, fileType string) ([]*transfer.MediaView, error)
	Get(ctx context.Context, userID, mediaID int64) (*transfer.MediaView, error)
}

type mediaService struct {
	mr      repository.MediaRepository
	pm      repository.PostMediaRepository
	stats   StatsService
	storage BlobStorage
	now     func() time.Time
}

func NewMediaService(
	mr repository.MediaRepository,
	pm repository.PostMediaRepository,
	stats StatsService,
	storage BlobStorage) MediaService {
	return &mediaService{
		mr:      mr,
		pm:      pm,
		stats:   stats,
		storage: storage,
		now:     time.Now,
	}
}

// allowedUploadTypes maps sniffed file extensions to the media type stored
// on the record.
var allowedUploadTypes = map[string]string{
	"jpg":  models.MediaTypeImage,
	"png":  models.MediaTypeImage,
	"gif":  models.MediaTypeImage,
	"mp4":  models.MediaTypeVideo,
	"mov":  models.MediaTypeVideo,
	"webm": models.MediaTypeVideo,
}

func (s *mediaService) GenerateUploadURL(ctx context.Context, userID int64) (*transfer.UploadTarget, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: missing caller identity", apperr.ErrUnauthorized)
	}

	key, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	url, err := s.storage.PresignPut(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}

	return &transfer.UploadTarget{UploadURL: url, StorageKey: key}, nil
}

func (s *mediaService) Save(ctx context.Context, userID int64, mu *transfer.MediaUpload) (*models.Media, error) {
	if mu == nil || mu.StorageKey == "" {
		return nil, fmt.Errorf("%w: storage key is missing", apperr.ErrValidation)
	}

	if err := validateMediaSize(mu.FileType, mu.Size); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	media := &models.Media{
		UserID:     userID,
		FileName:   mu.FileName,
		FileType:   mu.FileType,
		MimeType:   mu.MimeType,
		FileSize:   mu.Size,
		StorageKey: mu.StorageKey,
	}

	mediaID, err := s.mr.Create(ctx, media)
	if err != nil {
		return nil, fmt.Errorf("error saving media: %w", err)
	}

	s.recomputeStats(ctx, userID)

	return s.mr.GetByID(ctx, mediaID)
}

func (s *mediaService) Upload(ctx context.Context, userID int64, fileName string, data []byte) (*models.Media, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", apperr.ErrValidation)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return nil, fmt.Errorf("%w: unsupported file type", apperr.ErrValidation)
	}

	mediaType, ok := allowedUploadTypes[kind.Extension]
	if !ok {
		return nil, fmt.Errorf("%w: file type %s is not allowed", apperr.ErrValidation, kind.Extension)
	}

	if err := validateMediaSize(mediaType, int64(len(data))); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	key, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	if err := s.storage.Upload(ctx, key, data, kind.MIME.Value); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	media := &models.Media{
		UserID:     userID,
		FileName:   fileName,
		FileType:   mediaType,
		MimeType:   kind.MIME.Value,
		FileSize:   int64(len(data)),
		StorageKey: key,
	}

	mediaID, err := s.mr.Create(ctx, media)
	if err != nil {
		return nil, fmt.Errorf("error saving media: %w", err)
	}

	s.recomputeStats(ctx, userID)

	return s.mr.GetByID(ctx, mediaID)
}

func (s *mediaService) Remove(ctx context.Context, userID, mediaID int64) error {
	media, err := s.mr.GetByID(ctx, mediaID)
	if err != nil {
		return err
	}
	if media == nil {
		return fmt.Errorf("%w: media does not exist", apperr.ErrNotFound)
	}
	if media.UserID != userID {
		return fmt.Errorf("%w: not allowed to delete this media", apperr.ErrUnauthorized)
	}

	inUse, err := s.pm.HasActiveReference(ctx, mediaID)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: media is still used by a scheduled post", apperr.ErrConflict)
	}

	if err := s.storage.Delete(ctx, media.StorageKey); err != nil {
		return fmt.Errorf("error deleting stored file: %w", err)
	}
	if err := s.mr.Remove(ctx, mediaID); err != nil {
		return fmt.Errorf("error removing media: %w", err)
	}

	s.recomputeStats(ctx, userID)
	return nil
}

func (s *mediaService) List(ctx context.Context, userID int64, fileType string) ([]*transfer.MediaView, error) {
	var (
		items []*models.Media
		err   error
	)

	switch fileType {
	case "":
		items, err = s.mr.GetByUserID(ctx, userID)
	case models.MediaTypeImage, models.MediaTypeVideo:
		items, err = s.mr.GetByUserIDAndType(ctx, userID, fileType)
	default:
		return nil, fmt.Errorf("%w: unknown media type %q", apperr.ErrValidation, fileType)
	}
	if err != nil {
		return nil, err
	}

	views := make([]*transfer.MediaView, 0, len(items))
	for _, media := range items {
		views = append(views, s.view(ctx, media))
	}
	return views, nil
}

func (s *mediaService) Get(ctx context.Context, userID, mediaID int64) (*transfer.MediaView, error) {
	media, err := s.mr.GetByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, fmt.Errorf("%w: media does not exist", apperr.ErrNotFound)
	}
	if media.UserID != userID {
		return nil, fmt.Errorf("%w: not allowed to view this media", apperr.ErrUnauthorized)
	}

	return s.view(ctx, media), nil
}

func (s *mediaService) view(ctx context.Context, media *models.Media) *transfer.MediaView {
	url, err := s.storage.PresignGet(ctx, media.StorageKey)
	if err != nil {
		slog.Info("unable to presign media", "media_id", media.ID, "error", err)
	}

	return &transfer.MediaView{
		ID:         media.ID,
		FileName:   media.FileName,
		FileType:   media.FileType,
		MimeType:   media.MimeType,
		FileSize:   media.FileSize,
		URL:        url,
		UploadedAt: media.UploadedAt,
	}
}

func validateMediaSize(fileType string, size int64) error {
	switch fileType {
	case models.MediaTypeImage:
		if size > models.MaxImageSize {
			return fmt.Errorf("%w: image size exceeds limit of %dMB", apperr.ErrValidation, models.MaxImageSize/1024/1024)
		}
	case models.MediaTypeVideo:
		if size > models.MaxVideoSize {
			return fmt.Errorf("%w: video size exceeds limit of %dMB", apperr.ErrValidation, models.MaxVideoSize/1024/1024)
		}
	default:
		return fmt.Errorf("%w: unsupported media type %q", apperr.ErrValidation, fileType)
	}

	if size <= 0 {
		return fmt.Errorf("%w: file size must be positive", apperr.ErrValidation)
	}
	return nil
}

func (s *mediaService) recomputeStats(ctx context.Context, userID int64) {
	if err := s.stats.Recompute(ctx, userID); err != nil {
		slog.Info(err.Error())
	}
}
