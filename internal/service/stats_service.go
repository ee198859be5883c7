package service

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/postdeck/internal/models"
	"github.com/maheshrc27/postdeck/internal/repository"
)

const (
	upcomingLimit       = 5
	recentActivityLimit = 10
)

type StatsService interface {
	Recompute(ctx context.Context, userID int64) error
	Get(ctx context.Context, userID int64) (*models.WorkspaceStats, error)
	Upcoming(ctx context.Context, userID int64) ([]*models.Post, error)
	RecentActivity(ctx context.Context, userID int64) ([]*models.Post, error)
}

type statsService struct {
	pr  repository.PostRepository
	mr  repository.MediaRepository
	sr  repository.StatsRepository
	now func() time.Time
}

func NewStatsService(
	pr repository.PostRepository,
	mr repository.MediaRepository,
	sr repository.StatsRepository) StatsService {
	return &statsService{
		pr:  pr,
		mr:  mr,
		sr:  sr,
		now: time.Now,
	}
}

type StatsCounts struct {
	Total     int
	Scheduled int
	Published int
	Failed    int
}

// CountPosts tallies post statuses. Pure; the snapshot is always derivable
// from it plus a media count.
func CountPosts(posts []*models.Post) StatsCounts {
	counts := StatsCounts{Total: len(posts)}
	for _, post := range posts {
		switch post.Status {
		case models.PostStatusScheduled:
			counts.Scheduled++
		case models.PostStatusPublished:
			counts.Published++
		case models.PostStatusFailed:
			counts.Failed++
		}
	}
	return counts
}

// Recompute rescans the user's posts and media and overwrites the cached
// snapshot. Running it twice in a row yields identical numbers.
func (s *statsService) Recompute(ctx context.Context, userID int64) error {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading posts for stats: %w", err)
	}

	mediaCount, err := s.mr.CountByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error counting media for stats: %w", err)
	}

	counts := CountPosts(posts)

	return s.sr.Upsert(ctx, &models.WorkspaceStats{
		UserID:         userID,
		TotalPosts:     counts.Total,
		ScheduledPosts: counts.Scheduled,
		PublishedPosts: counts.Published,
		FailedPosts:    counts.Failed,
		TotalMedia:     mediaCount,
		LastUpdated:    s.now(),
	})
}

func (s *statsService) Get(ctx context.Context, userID int64) (*models.WorkspaceStats, error) {
	stats, err := s.sr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return &models.WorkspaceStats{UserID: userID, LastUpdated: s.now()}, nil
	}
	return stats, nil
}

func (s *statsService) Upcoming(ctx context.Context, userID int64) ([]*models.Post, error) {
	return s.pr.GetUpcoming(ctx, userID, s.now(), upcomingLimit)
}

func (s *statsService) RecentActivity(ctx context.Context, userID int64) ([]*models.Post, error) {
	return s.pr.GetRecent(ctx, userID, recentActivityLimit)
}
