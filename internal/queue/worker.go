package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postdeck/internal/models"
)

const publishConcurrencyLimit = 4

func (w *Worker) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return w.PublishPost(ctx, payload.PostID)
}

// PublishPost runs the armed publish action for a post. It is safe to call
// more than once for the same post: the scheduled→publishing claim only
// succeeds for the first caller, and every later invocation is a no-op.
// Whatever goes wrong past that claim ends in a failed transition, so a
// post is never left sitting in publishing.
func (w *Worker) PublishPost(ctx context.Context, postID int64) error {
	post, err := w.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		// Deleted between firing and now.
		slog.Info("publish task for missing post", "post_id", postID)
		return nil
	}

	claimed, err := w.pr.MarkPublishing(ctx, postID)
	if err != nil {
		return err
	}
	if !claimed {
		slog.Info("post no longer scheduled, skipping publish", "post_id", postID, "status", post.Status)
		return nil
	}
	w.recomputeStats(ctx, post.UserID)

	mediaURLs, err := w.resolveMediaURLs(ctx, postID)
	if err != nil {
		w.finish(ctx, post, "resolving media: "+err.Error())
		return nil
	}

	failures := w.deliver(ctx, post, mediaURLs)

	w.finish(ctx, post, strings.Join(failures, "; "))
	return nil
}

// deliver posts to every platform concurrently and returns the failure
// messages in the post's platform order, so the recorded error message is
// deterministic.
func (w *Worker) deliver(ctx context.Context, post *models.Post, mediaURLs []string) []string {
	results := make([]error, len(post.Platforms))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, publishConcurrencyLimit)

	for i, platform := range post.Platforms {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, platform string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := w.pub.Publish(ctx, platform, post.Content, mediaURLs); err != nil {
				results[i] = err
				slog.Error("platform delivery failed", "post_id", post.ID, "platform", platform, "error", err)
			}
		}(i, platform)
	}

	wg.Wait()

	var failures []string
	for _, err := range results {
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// resolveMediaURLs turns the post's attachments into servable URLs. Refs
// that no longer resolve are dropped rather than failing the publish.
func (w *Worker) resolveMediaURLs(ctx context.Context, postID int64) ([]string, error) {
	mediaIDs, err := w.pm.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, mediaID := range mediaIDs {
		media, err := w.mr.GetByID(ctx, mediaID)
		if err != nil {
			return nil, err
		}
		if media == nil {
			slog.Info("attached media no longer exists, dropping", "post_id", postID, "media_id", mediaID)
			continue
		}

		url, err := w.storage.PresignGet(ctx, media.StorageKey)
		if err != nil {
			slog.Info("unable to presign media, dropping", "post_id", postID, "media_id", mediaID)
			continue
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (w *Worker) finish(ctx context.Context, post *models.Post, errorMessage string) {
	var err error
	if errorMessage == "" {
		err = w.pr.MarkPublished(ctx, post.ID, w.now())
	} else {
		err = w.pr.MarkFailed(ctx, post.ID, errorMessage)
	}
	if err != nil {
		// The reconcile job will pick the post up if it stays in publishing.
		slog.Error("failed to record publish outcome", "post_id", post.ID, "error", err)
		return
	}

	w.recomputeStats(ctx, post.UserID)
}

func (w *Worker) recomputeStats(ctx context.Context, userID int64) {
	if err := w.stats.Recompute(ctx, userID); err != nil {
		slog.Info(err.Error())
	}
}
