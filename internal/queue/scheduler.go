package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const TaskTypePublishPost = "post:publish"

// QueueName is the asynq queue all publish tasks go through.
const QueueName = "default"

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}

// Scheduler is the delayed-execution primitive the post lifecycle depends
// on: arm a one-shot publish at a future instant, cancel it by handle, or
// ask whether a handle still refers to a task the queue will fire.
// Cancelling a task that already fired is a no-op.
type Scheduler interface {
	Schedule(ctx context.Context, postID int64, runAt time.Time) (string, error)
	Cancel(ctx context.Context, taskID string) error
	Pending(ctx context.Context, taskID string) (bool, error)
}

type asynqScheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewScheduler(client *asynq.Client, inspector *asynq.Inspector) Scheduler {
	return &asynqScheduler{client: client, inspector: inspector}
}

func (s *asynqScheduler) Schedule(ctx context.Context, postID int64, runAt time.Time) (string, error) {
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(TaskTypePublishPost, payload)

	// Retrying a publish task would re-deliver the post; failures are
	// recorded on the post row instead.
	info, err := s.client.EnqueueContext(ctx, task, asynq.ProcessAt(runAt), asynq.MaxRetry(0), asynq.Queue(QueueName))
	if err != nil {
		slog.Error("failed to enqueue publish task", "post_id", postID, "error", err)
		return "", fmt.Errorf("enqueue publish task: %w", err)
	}

	slog.Info("publish task scheduled", "post_id", postID, "task_id", info.ID, "run_at", runAt)
	return info.ID, nil
}

// Pending reports whether the queue still holds the task. A fired and
// completed task is removed from the queue, so "not found" means gone.
func (s *asynqScheduler) Pending(ctx context.Context, taskID string) (bool, error) {
	info, err := s.inspector.GetTaskInfo(QueueName, taskID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return info != nil, nil
}

func (s *asynqScheduler) Cancel(ctx context.Context, taskID string) error {
	err := s.inspector.DeleteTask(QueueName, taskID)
	if err != nil {
		// The task already fired or was cancelled before; both are fine.
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil
		}
		slog.Info(err.Error())
		return err
	}
	return nil
}
