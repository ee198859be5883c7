package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/maheshrc27/postdeck/internal/models"
)

type fakePostRepo struct {
	posts  map[int64]*models.Post
	nextID int64
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*models.Post)}
}

func (f *fakePostRepo) Create(_ context.Context, post *models.Post) (int64, error) {
	f.nextID++
	stored := *post
	stored.ID = f.nextID
	stored.Status = models.PostStatusScheduled
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.posts[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id int64) (*models.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	clone := *post
	return &clone, nil
}

func (f *fakePostRepo) all() []*models.Post {
	ids := make([]int64, 0, len(f.posts))
	for id := range f.posts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	posts := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		clone := *f.posts[id]
		posts = append(posts, &clone)
	}
	return posts
}

func (f *fakePostRepo) GetByUserID(_ context.Context, userID int64) ([]*models.Post, error) {
	var posts []*models.Post
	for _, post := range f.all() {
		if post.UserID == userID {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (f *fakePostRepo) GetByUserIDAndStatus(_ context.Context, userID int64, status string) ([]*models.Post, error) {
	var posts []*models.Post
	for _, post := range f.all() {
		if post.UserID == userID && post.Status == status {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (f *fakePostRepo) GetByScheduledRange(_ context.Context, userID int64, from, to time.Time) ([]*models.Post, error) {
	var posts []*models.Post
	for _, post := range f.all() {
		if post.UserID == userID && !post.ScheduledAt.Before(from) && !post.ScheduledAt.After(to) {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (f *fakePostRepo) GetUpcoming(_ context.Context, userID int64, after time.Time, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	for _, post := range f.all() {
		if post.UserID == userID && post.Status == models.PostStatusScheduled && !post.ScheduledAt.Before(after) {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ScheduledAt.Before(posts[j].ScheduledAt) })
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (f *fakePostRepo) GetRecent(_ context.Context, userID int64, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	for _, post := range f.all() {
		if post.UserID == userID && models.IsTerminalStatus(post.Status) {
			posts = append(posts, post)
		}
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (f *fakePostRepo) GetOverdueScheduled(_ context.Context, cutoff time.Time) ([]*models.Post, error) {
	var posts []*models.Post
	for _, post := range f.all() {
		if post.Status == models.PostStatusScheduled && !post.ScheduledAt.After(cutoff) {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (f *fakePostRepo) GetStalePublishing(_ context.Context, cutoff time.Time) ([]*models.Post, error) {
	var posts []*models.Post
	for _, post := range f.all() {
		if post.Status == models.PostStatusPublishing && !post.UpdatedAt.After(cutoff) {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (f *fakePostRepo) Update(_ context.Context, post *models.Post) (bool, error) {
	stored, ok := f.posts[post.ID]
	if !ok || stored.Status != models.PostStatusScheduled {
		return false, nil
	}
	stored.Content = post.Content
	stored.Platforms = post.Platforms
	stored.ScheduledAt = post.ScheduledAt
	stored.TaskID = post.TaskID
	stored.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakePostRepo) SetTaskID(_ context.Context, id int64, taskID string) (bool, error) {
	stored, ok := f.posts[id]
	if !ok || stored.Status != models.PostStatusScheduled {
		return false, nil
	}
	stored.TaskID = &taskID
	return true, nil
}

func (f *fakePostRepo) MarkPublishing(_ context.Context, id int64) (bool, error) {
	stored, ok := f.posts[id]
	if !ok || stored.Status != models.PostStatusScheduled {
		return false, nil
	}
	stored.Status = models.PostStatusPublishing
	stored.TaskID = nil
	stored.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakePostRepo) MarkPublished(_ context.Context, id int64, publishedAt time.Time) error {
	stored, ok := f.posts[id]
	if !ok {
		return fmt.Errorf("post %d not found", id)
	}
	stored.Status = models.PostStatusPublished
	stored.PublishedAt = &publishedAt
	stored.ErrorMessage = nil
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakePostRepo) MarkFailed(_ context.Context, id int64, message string) error {
	stored, ok := f.posts[id]
	if !ok {
		return fmt.Errorf("post %d not found", id)
	}
	stored.Status = models.PostStatusFailed
	stored.ErrorMessage = &message
	stored.PublishedAt = nil
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakePostRepo) Remove(_ context.Context, id int64) error {
	delete(f.posts, id)
	return nil
}

type fakePostMediaRepo struct {
	refs       map[int64][]int64
	activeRefs map[int64]bool
}

func newFakePostMediaRepo() *fakePostMediaRepo {
	return &fakePostMediaRepo{
		refs:       make(map[int64][]int64),
		activeRefs: make(map[int64]bool),
	}
}

func (f *fakePostMediaRepo) ReplaceForPost(_ context.Context, postID int64, mediaIDs []int64) error {
	f.refs[postID] = append([]int64(nil), mediaIDs...)
	return nil
}

func (f *fakePostMediaRepo) ListByPostID(_ context.Context, postID int64) ([]int64, error) {
	return append([]int64(nil), f.refs[postID]...), nil
}

func (f *fakePostMediaRepo) RemoveByPostID(_ context.Context, postID int64) error {
	delete(f.refs, postID)
	return nil
}

func (f *fakePostMediaRepo) HasActiveReference(_ context.Context, mediaID int64) (bool, error) {
	return f.activeRefs[mediaID], nil
}

type fakeMediaRepo struct {
	media  map[int64]*models.Media
	nextID int64
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{media: make(map[int64]*models.Media)}
}

func (f *fakeMediaRepo) Create(_ context.Context, media *models.Media) (int64, error) {
	f.nextID++
	stored := *media
	stored.ID = f.nextID
	stored.UploadedAt = time.Now()
	f.media[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakeMediaRepo) GetByID(_ context.Context, id int64) (*models.Media, error) {
	media, ok := f.media[id]
	if !ok {
		return nil, nil
	}
	clone := *media
	return &clone, nil
}

func (f *fakeMediaRepo) GetByUserID(_ context.Context, userID int64) ([]*models.Media, error) {
	var items []*models.Media
	for _, media := range f.media {
		if media.UserID == userID {
			clone := *media
			items = append(items, &clone)
		}
	}
	return items, nil
}

func (f *fakeMediaRepo) GetByUserIDAndType(_ context.Context, userID int64, fileType string) ([]*models.Media, error) {
	var items []*models.Media
	for _, media := range f.media {
		if media.UserID == userID && media.FileType == fileType {
			clone := *media
			items = append(items, &clone)
		}
	}
	return items, nil
}

func (f *fakeMediaRepo) CountByUserID(_ context.Context, userID int64) (int, error) {
	count := 0
	for _, media := range f.media {
		if media.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeMediaRepo) Remove(_ context.Context, id int64) error {
	delete(f.media, id)
	return nil
}

type fakeStatsRepo struct {
	snapshots map[int64]*models.WorkspaceStats
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{snapshots: make(map[int64]*models.WorkspaceStats)}
}

func (f *fakeStatsRepo) Upsert(_ context.Context, stats *models.WorkspaceStats) error {
	clone := *stats
	f.snapshots[stats.UserID] = &clone
	return nil
}

func (f *fakeStatsRepo) GetByUserID(_ context.Context, userID int64) (*models.WorkspaceStats, error) {
	stats, ok := f.snapshots[userID]
	if !ok {
		return nil, nil
	}
	clone := *stats
	return &clone, nil
}

type fakeScheduler struct {
	seq       int
	armed     map[string]time.Time
	canceled  []string
	cancelErr error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{armed: make(map[string]time.Time)}
}

func (f *fakeScheduler) Schedule(_ context.Context, postID int64, runAt time.Time) (string, error) {
	f.seq++
	taskID := fmt.Sprintf("task-%d", f.seq)
	f.armed[taskID] = runAt
	return taskID, nil
}

func (f *fakeScheduler) Pending(_ context.Context, taskID string) (bool, error) {
	_, ok := f.armed[taskID]
	return ok, nil
}

func (f *fakeScheduler) Cancel(_ context.Context, taskID string) error {
	f.canceled = append(f.canceled, taskID)
	if f.cancelErr != nil {
		return f.cancelErr
	}
	delete(f.armed, taskID)
	return nil
}

type fakeStats struct {
	recomputed []int64
}

func (f *fakeStats) Recompute(_ context.Context, userID int64) error {
	f.recomputed = append(f.recomputed, userID)
	return nil
}

func (f *fakeStats) Get(_ context.Context, userID int64) (*models.WorkspaceStats, error) {
	return &models.WorkspaceStats{UserID: userID}, nil
}

func (f *fakeStats) Upcoming(_ context.Context, _ int64) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakeStats) RecentActivity(_ context.Context, _ int64) ([]*models.Post, error) {
	return nil, nil
}

type fakeBlobStorage struct {
	uploaded map[string][]byte
	deleted  []string
}

func newFakeBlobStorage() *fakeBlobStorage {
	return &fakeBlobStorage{uploaded: make(map[string][]byte)}
}

func (f *fakeBlobStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	f.uploaded[key] = data
	return nil
}

func (f *fakeBlobStorage) PresignGet(_ context.Context, key string) (string, error) {
	return "https://media.test/" + key, nil
}

func (f *fakeBlobStorage) PresignPut(_ context.Context, key string) (string, error) {
	return "https://upload.test/" + key, nil
}

func (f *fakeBlobStorage) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}
