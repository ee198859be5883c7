package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postdeck/internal/models"
	"github.com/maheshrc27/postdeck/internal/queue"
)

const (
	// A scheduled post this far past its time with no live task is
	// considered a lost fire and gets re-armed.
	overdueGrace = time.Minute

	// A post sitting in publishing this long means the worker died
	// mid-flight; the post is failed so it never stays stuck.
	publishingTimeout = 15 * time.Minute
)

type PostStore interface {
	GetOverdueScheduled(ctx context.Context, cutoff time.Time) ([]*models.Post, error)
	GetStalePublishing(ctx context.Context, cutoff time.Time) ([]*models.Post, error)
	SetTaskID(ctx context.Context, id int64, taskID string) (bool, error)
	MarkFailed(ctx context.Context, id int64, message string) error
}

type StatsRecomputer interface {
	Recompute(ctx context.Context, userID int64) error
}

// ReconcileJob sweeps up posts the delayed-task queue lost track of. It
// runs on a fixed cron interval and is idempotent: a healthy system gives
// it nothing to do.
type ReconcileJob struct {
	pr    PostStore
	sched queue.Scheduler
	stats StatsRecomputer
	now   func() time.Time
}

func NewReconcileJob(pr PostStore, sched queue.Scheduler, stats StatsRecomputer) *ReconcileJob {
	return &ReconcileJob{
		pr:    pr,
		sched: sched,
		stats: stats,
		now:   time.Now,
	}
}

func (j *ReconcileJob) Run() {
	ctx := context.Background()
	now := j.now()

	j.rearmOverdue(ctx, now)
	j.failStalePublishing(ctx, now)
}

func (j *ReconcileJob) rearmOverdue(ctx context.Context, now time.Time) {
	posts, err := j.pr.GetOverdueScheduled(ctx, now.Add(-overdueGrace))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range posts {
		if post.TaskID != nil {
			pending, err := j.sched.Pending(ctx, *post.TaskID)
			if err != nil {
				slog.Info(err.Error())
				continue
			}
			if pending {
				// The queue still holds the task; it will fire on its own.
				continue
			}
		}

		taskID, err := j.sched.Schedule(ctx, post.ID, now)
		if err != nil {
			slog.Error("unable to re-arm overdue post", "post_id", post.ID, "error", err)
			continue
		}

		ok, err := j.pr.SetTaskID(ctx, post.ID, taskID)
		if err != nil {
			slog.Error("unable to store re-armed task handle", "post_id", post.ID, "error", err)
			continue
		}
		if !ok {
			slog.Info("post claimed before re-armed handle stored", "post_id", post.ID)
			continue
		}
		slog.Info("re-armed overdue post", "post_id", post.ID, "task_id", taskID)
	}
}

func (j *ReconcileJob) failStalePublishing(ctx context.Context, now time.Time) {
	posts, err := j.pr.GetStalePublishing(ctx, now.Add(-publishingTimeout))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range posts {
		if err := j.pr.MarkFailed(ctx, post.ID, "publish timed out"); err != nil {
			slog.Error("unable to fail stale post", "post_id", post.ID, "error", err)
			continue
		}
		slog.Info("failed stale publishing post", "post_id", post.ID)

		if err := j.stats.Recompute(ctx, post.UserID); err != nil {
			slog.Info(err.Error())
		}
	}
}
