package queue

import (
	"context"
	"time"

	"github.com/maheshrc27/postdeck/internal/models"
)

// The worker depends on the narrow slices of behavior it needs, so the
// repository and service types plug in without the queue package knowing
// about them.

type PostStore interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	MarkPublishing(ctx context.Context, id int64) (bool, error)
	MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, message string) error
}

type PostMediaStore interface {
	ListByPostID(ctx context.Context, postID int64) ([]int64, error)
}

type MediaStore interface {
	GetByID(ctx context.Context, id int64) (*models.Media, error)
}

type BlobResolver interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, platform, content string, mediaURLs []string) error
}

type StatsRecomputer interface {
	Recompute(ctx context.Context, userID int64) error
}

type Worker struct {
	pr      PostStore
	pm      PostMediaStore
	mr      MediaStore
	stats   StatsRecomputer
	storage BlobResolver
	pub     Publisher
	now     func() time.Time
}

func NewWorker(
	pr PostStore,
	pm PostMediaStore,
	mr MediaStore,
	stats StatsRecomputer,
	storage BlobResolver,
	pub Publisher) *Worker {
	return &Worker{
		pr:      pr,
		pm:      pm,
		mr:      mr,
		stats:   stats,
		storage: storage,
		pub:     pub,
		now:     time.Now,
	}
}
