package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/postdeck/internal/models"
	"github.com/stretchr/testify/require"
)

type fakePostStore struct {
	posts map[int64]*models.Post
}

func (f *fakePostStore) GetByID(_ context.Context, id int64) (*models.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	clone := *post
	return &clone, nil
}

func (f *fakePostStore) MarkPublishing(_ context.Context, id int64) (bool, error) {
	post, ok := f.posts[id]
	if !ok || post.Status != models.PostStatusScheduled {
		return false, nil
	}
	post.Status = models.PostStatusPublishing
	post.TaskID = nil
	return true, nil
}

func (f *fakePostStore) MarkPublished(_ context.Context, id int64, publishedAt time.Time) error {
	post, ok := f.posts[id]
	if !ok {
		return errors.New("post not found")
	}
	post.Status = models.PostStatusPublished
	post.PublishedAt = &publishedAt
	post.ErrorMessage = nil
	return nil
}

func (f *fakePostStore) MarkFailed(_ context.Context, id int64, message string) error {
	post, ok := f.posts[id]
	if !ok {
		return errors.New("post not found")
	}
	post.Status = models.PostStatusFailed
	post.ErrorMessage = &message
	post.PublishedAt = nil
	return nil
}

type fakePostMediaStore struct {
	refs    map[int64][]int64
	listErr error
}

func (f *fakePostMediaStore) ListByPostID(_ context.Context, postID int64) ([]int64, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.refs[postID], nil
}

type fakeMediaStore struct {
	media map[int64]*models.Media
}

func (f *fakeMediaStore) GetByID(_ context.Context, id int64) (*models.Media, error) {
	media, ok := f.media[id]
	if !ok {
		return nil, nil
	}
	return media, nil
}

type fakeResolver struct{}

func (fakeResolver) PresignGet(_ context.Context, key string) (string, error) {
	return "https://media.test/" + key, nil
}

type publishCall struct {
	platform  string
	content   string
	mediaURLs []string
}

type fakePublisher struct {
	mu       sync.Mutex
	calls    []publishCall
	failures map[string]string
}

func (f *fakePublisher) Publish(_ context.Context, platform, content string, mediaURLs []string) error {
	f.mu.Lock()
	f.calls = append(f.calls, publishCall{platform: platform, content: content, mediaURLs: mediaURLs})
	f.mu.Unlock()

	if msg, ok := f.failures[platform]; ok {
		return errors.New(msg)
	}
	return nil
}

type fakeStats struct {
	mu         sync.Mutex
	recomputed []int64
}

func (f *fakeStats) Recompute(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recomputed = append(f.recomputed, userID)
	return nil
}

type workerFixture struct {
	worker *Worker
	posts  *fakePostStore
	refs   *fakePostMediaStore
	media  *fakeMediaStore
	pub    *fakePublisher
	stats  *fakeStats
	now    time.Time
}

func newWorkerFixture(t *testing.T, post *models.Post) *workerFixture {
	t.Helper()

	f := &workerFixture{
		posts: &fakePostStore{posts: map[int64]*models.Post{}},
		refs:  &fakePostMediaStore{refs: map[int64][]int64{}},
		media: &fakeMediaStore{media: map[int64]*models.Media{}},
		pub:   &fakePublisher{failures: map[string]string{}},
		stats: &fakeStats{},
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if post != nil {
		f.posts.posts[post.ID] = post
	}

	f.worker = NewWorker(f.posts, f.refs, f.media, f.stats, fakeResolver{}, f.pub)
	f.worker.now = func() time.Time { return f.now }
	return f
}

func scheduledPost(id int64, platforms ...string) *models.Post {
	taskID := "task-1"
	return &models.Post{
		ID:        id,
		UserID:    1,
		Content:   "Hello",
		Platforms: platforms,
		Status:    models.PostStatusScheduled,
		TaskID:    &taskID,
	}
}

func TestPublishPostAllPlatformsSucceed(t *testing.T) {
	post := scheduledPost(1, models.PlatformTwitter, models.PlatformLinkedin)
	f := newWorkerFixture(t, post)

	require.NoError(t, f.worker.PublishPost(context.Background(), 1))

	require.Equal(t, models.PostStatusPublished, post.Status)
	require.NotNil(t, post.PublishedAt)
	require.True(t, post.PublishedAt.Equal(f.now))
	require.Nil(t, post.ErrorMessage)
	require.Nil(t, post.TaskID)

	require.Len(t, f.pub.calls, 2)
	platforms := map[string]bool{}
	for _, call := range f.pub.calls {
		platforms[call.platform] = true
		require.Equal(t, "Hello", call.content)
	}
	require.True(t, platforms[models.PlatformTwitter])
	require.True(t, platforms[models.PlatformLinkedin])

	// One recompute for the publishing claim, one for the outcome.
	require.Equal(t, []int64{1, 1}, f.stats.recomputed)
}

func TestPublishPostRecordsFailuresInPlatformOrder(t *testing.T) {
	post := scheduledPost(1, models.PlatformTwitter, models.PlatformLinkedin, models.PlatformBluesky)
	f := newWorkerFixture(t, post)
	f.pub.failures[models.PlatformTwitter] = "rate limited"
	f.pub.failures[models.PlatformBluesky] = "expired token"

	require.NoError(t, f.worker.PublishPost(context.Background(), 1))

	require.Equal(t, models.PostStatusFailed, post.Status)
	require.NotNil(t, post.ErrorMessage)
	require.Equal(t, "rate limited; expired token", *post.ErrorMessage)
	require.Nil(t, post.PublishedAt)
}

func TestPublishPostSingleFailureMessage(t *testing.T) {
	post := scheduledPost(1, models.PlatformTwitter)
	f := newWorkerFixture(t, post)
	f.pub.failures[models.PlatformTwitter] = "rate limited"

	require.NoError(t, f.worker.PublishPost(context.Background(), 1))

	require.Equal(t, models.PostStatusFailed, post.Status)
	require.Equal(t, "rate limited", *post.ErrorMessage)
}

func TestPublishPostMissingPostIsNoOp(t *testing.T) {
	f := newWorkerFixture(t, nil)

	require.NoError(t, f.worker.PublishPost(context.Background(), 99))

	require.Empty(t, f.pub.calls)
	require.Empty(t, f.stats.recomputed)
}

func TestPublishPostDoubleFireIsNoOp(t *testing.T) {
	post := scheduledPost(1, models.PlatformTwitter)
	f := newWorkerFixture(t, post)

	require.NoError(t, f.worker.PublishPost(context.Background(), 1))
	require.Equal(t, models.PostStatusPublished, post.Status)
	require.Len(t, f.pub.calls, 1)

	// A duplicate delivery of the same task must not publish again.
	require.NoError(t, f.worker.PublishPost(context.Background(), 1))
	require.Len(t, f.pub.calls, 1)
	require.Equal(t, models.PostStatusPublished, post.Status)
}

func TestPublishPostFailsWhenMediaLookupErrors(t *testing.T) {
	post := scheduledPost(1, models.PlatformTwitter)
	f := newWorkerFixture(t, post)
	f.refs.listErr = errors.New("connection reset")

	require.NoError(t, f.worker.PublishPost(context.Background(), 1))

	// A store failure after the claim must still land the post in a
	// terminal status, never leave it publishing.
	require.Equal(t, models.PostStatusFailed, post.Status)
	require.NotNil(t, post.ErrorMessage)
	require.Equal(t, "resolving media: connection reset", *post.ErrorMessage)
	require.Empty(t, f.pub.calls)
	require.Equal(t, []int64{1, 1}, f.stats.recomputed)
}

func TestPublishPostDropsDanglingMediaRefs(t *testing.T) {
	post := scheduledPost(1, models.PlatformTwitter)
	f := newWorkerFixture(t, post)

	f.media.media[10] = &models.Media{ID: 10, UserID: 1, StorageKey: "obj-10"}
	f.refs.refs[1] = []int64{10, 11} // 11 was deleted after scheduling

	require.NoError(t, f.worker.PublishPost(context.Background(), 1))

	require.Equal(t, models.PostStatusPublished, post.Status)
	require.Len(t, f.pub.calls, 1)
	require.Equal(t, []string{"https://media.test/obj-10"}, f.pub.calls[0].mediaURLs)
}
