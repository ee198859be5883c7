package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postdeck/internal/apperr"
	"github.com/maheshrc27/postdeck/internal/models"
	"github.com/maheshrc27/postdeck/internal/queue"
	"github.com/maheshrc27/postdeck/internal/repository"
	"github.com/maheshrc27/postdeck/internal/transfer"
)

type PostService interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error)
	Update(ctx context.Context, userID int64, pu *transfer.PostUpdate) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
	Get(ctx context.Context, userID, postID int64) (*transfer.PostDetail, error)
	List(ctx context.Context, userID int64, status string) ([]*models.Post, error)
	Calendar(ctx context.Context, userID int64, from, to time.Time) ([]*models.Post, error)
}

type postService struct {
	pr      repository.PostRepository
	pm      repository.PostMediaRepository
	mr      repository.MediaRepository
	stats   StatsService
	sched   queue.Scheduler
	storage BlobStorage
	now     func() time.Time
}

func NewPostService(
	pr repository.PostRepository,
	pm repository.PostMediaRepository,
	mr repository.MediaRepository,
	stats StatsService,
	sched queue.Scheduler,
	storage BlobStorage) PostService {
	return &postService{
		pr:      pr,
		pm:      pm,
		mr:      mr,
		stats:   stats,
		sched:   sched,
		storage: storage,
		now:     time.Now,
	}
}

func (s *postService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.Post, error) {
	if pc == nil {
		return nil, fmt.Errorf("%w: post data is missing", apperr.ErrValidation)
	}

	scheduledAt := time.UnixMilli(pc.ScheduledAt)

	if err := validateContent(pc.Content); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if err := validatePlatforms(pc.Platforms); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if err := validateSchedule(scheduledAt, s.now()); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if err := s.validateMediaRefs(ctx, userID, pc.MediaIDs); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	post := &models.Post{
		UserID:      userID,
		Content:     pc.Content,
		Platforms:   pc.Platforms,
		ScheduledAt: scheduledAt,
		Status:      models.PostStatusScheduled,
	}

	postID, err := s.pr.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	if len(pc.MediaIDs) > 0 {
		if err := s.pm.ReplaceForPost(ctx, postID, pc.MediaIDs); err != nil {
			return nil, fmt.Errorf("error saving media references: %w", err)
		}
	}

	taskID, err := s.sched.Schedule(ctx, postID, scheduledAt)
	if err != nil {
		return nil, fmt.Errorf("error arming publish task: %w", err)
	}

	ok, err := s.pr.SetTaskID(ctx, postID, taskID)
	if err != nil {
		return nil, fmt.Errorf("error storing task handle: %w", err)
	}
	if !ok {
		// The task fired before the handle landed; the worker owns the
		// post now and the handle must stay clear.
		slog.Info("publish task fired before handle stored", "post_id", postID)
	}

	s.recomputeStats(ctx, userID)

	return s.getWithRefs(ctx, postID)
}

func (s *postService) Update(ctx context.Context, userID int64, pu *transfer.PostUpdate) (*models.Post, error) {
	if pu == nil {
		return nil, fmt.Errorf("%w: update data is missing", apperr.ErrValidation)
	}

	post, err := s.pr.GetByID(ctx, pu.PostID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("%w: post does not exist", apperr.ErrNotFound)
	}
	if post.UserID != userID {
		return nil, fmt.Errorf("%w: not allowed to update this post", apperr.ErrUnauthorized)
	}
	if post.Status != models.PostStatusScheduled {
		return nil, fmt.Errorf("%w: only scheduled posts can be updated", apperr.ErrConflict)
	}

	// Revalidate everything the patch provides before touching anything.
	if pu.Content != nil {
		if err := validateContent(*pu.Content); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
	}
	if pu.Platforms != nil {
		if err := validatePlatforms(*pu.Platforms); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
	}
	if pu.MediaIDs != nil {
		if err := s.validateMediaRefs(ctx, userID, *pu.MediaIDs); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
	}

	var newScheduledAt time.Time
	if pu.ScheduledAt != nil {
		newScheduledAt = time.UnixMilli(*pu.ScheduledAt)
		if err := validateSchedule(newScheduledAt, s.now()); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
	}

	if pu.Content != nil {
		post.Content = *pu.Content
	}
	if pu.Platforms != nil {
		post.Platforms = *pu.Platforms
	}

	// A new scheduled time replaces the armed task; leaving the time alone
	// leaves the existing task armed.
	if pu.ScheduledAt != nil {
		if post.TaskID != nil {
			if err := s.sched.Cancel(ctx, *post.TaskID); err != nil {
				slog.Info("unable to cancel previous publish task", "post_id", post.ID, "error", err)
			}
		}

		taskID, err := s.sched.Schedule(ctx, post.ID, newScheduledAt)
		if err != nil {
			return nil, fmt.Errorf("error re-arming publish task: %w", err)
		}
		post.ScheduledAt = newScheduledAt
		post.TaskID = &taskID
	}

	updated, err := s.pr.Update(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("error updating post: %w", err)
	}
	if !updated {
		// The publish task fired between our read and the write. Nothing
		// was changed; unarm any task this update created.
		if pu.ScheduledAt != nil && post.TaskID != nil {
			if err := s.sched.Cancel(ctx, *post.TaskID); err != nil {
				slog.Info("unable to cancel replacement publish task", "post_id", post.ID, "error", err)
			}
		}
		return nil, fmt.Errorf("%w: post is no longer scheduled", apperr.ErrConflict)
	}

	if pu.MediaIDs != nil {
		if err := s.pm.ReplaceForPost(ctx, post.ID, *pu.MediaIDs); err != nil {
			return nil, fmt.Errorf("error updating media references: %w", err)
		}
	}

	return s.getWithRefs(ctx, post.ID)
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("%w: post does not exist", apperr.ErrNotFound)
	}
	if post.UserID != userID {
		return fmt.Errorf("%w: not allowed to delete this post", apperr.ErrUnauthorized)
	}

	// Best effort: the task may have fired already, which is fine.
	if post.Status == models.PostStatusScheduled && post.TaskID != nil {
		if err := s.sched.Cancel(ctx, *post.TaskID); err != nil {
			slog.Info("unable to cancel publish task", "post_id", postID, "error", err)
		}
	}

	if err := s.pm.RemoveByPostID(ctx, postID); err != nil {
		return fmt.Errorf("error removing media references: %w", err)
	}
	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}

	s.recomputeStats(ctx, userID)
	return nil
}

func (s *postService) Get(ctx context.Context, userID, postID int64) (*transfer.PostDetail, error) {
	post, err := s.getWithRefs(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("%w: post does not exist", apperr.ErrNotFound)
	}
	if post.UserID != userID {
		return nil, fmt.Errorf("%w: not allowed to view this post", apperr.ErrUnauthorized)
	}

	detail := &transfer.PostDetail{Post: post}
	for _, mediaID := range post.MediaIDs {
		media, err := s.mr.GetByID(ctx, mediaID)
		if err != nil {
			return nil, err
		}
		if media == nil {
			continue
		}
		detail.Media = append(detail.Media, s.mediaView(ctx, media))
	}

	return detail, nil
}

func (s *postService) List(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	if status == "" {
		return s.pr.GetByUserID(ctx, userID)
	}

	switch status {
	case models.PostStatusScheduled, models.PostStatusPublishing, models.PostStatusPublished, models.PostStatusFailed:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, status)
	}

	return s.pr.GetByUserIDAndStatus(ctx, userID, status)
}

func (s *postService) Calendar(ctx context.Context, userID int64, from, to time.Time) ([]*models.Post, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end of range precedes start", apperr.ErrValidation)
	}
	return s.pr.GetByScheduledRange(ctx, userID, from, to)
}

// validateMediaRefs checks that every referenced media item exists and
// belongs to the caller. A ref owned by someone else is indistinguishable
// from a missing one.
func (s *postService) validateMediaRefs(ctx context.Context, userID int64, mediaIDs []int64) error {
	for _, mediaID := range mediaIDs {
		media, err := s.mr.GetByID(ctx, mediaID)
		if err != nil {
			return err
		}
		if media == nil || media.UserID != userID {
			return fmt.Errorf("%w: invalid media reference", apperr.ErrValidation)
		}
	}
	return nil
}

func (s *postService) getWithRefs(ctx context.Context, postID int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil || post == nil {
		return post, err
	}

	mediaIDs, err := s.pm.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.MediaIDs = mediaIDs
	return post, nil
}

func (s *postService) mediaView(ctx context.Context, media *models.Media) *transfer.MediaView {
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

func (s *postService) recomputeStats(ctx context.Context, userID int64) {
	if err := s.stats.Recompute(ctx, userID); err != nil {
		slog.Info(err.Error())
	}
}
