package moderation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vitrine-craques/video-moderation-go/internal/db"
	"github.com/vitrine-craques/video-moderation-go/internal/models"
)

// memStore is an in-memory Store. Transactions are serialized, which stands in
// for the row lock taken by GetVideoForUpdate, and roll back on error.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	videos        map[string]*models.Video
	roles         map[string]models.Role
	notifications []*models.Notification

	failNotifications error
	failList          error
}

func newMemStore() *memStore {
	return &memStore{
		videos: make(map[string]*models.Video),
		roles:  make(map[string]models.Role),
	}
}

func (s *memStore) addUser(id string, role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[id] = role
}

func (s *memStore) addVideo(v *models.Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[v.ID] = v.Clone()
}

func (s *memStore) video(id string) *models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.videos[id]; ok {
		return v.Clone()
	}
	return nil
}

func (s *memStore) notificationsFor(userID string) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (s *memStore) notificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	videos := make(map[string]*models.Video, len(s.videos))
	for id, v := range s.videos {
		videos[id] = v.Clone()
	}
	notifications := len(s.notifications)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.videos = videos
		s.notifications = s.notifications[:notifications]
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) GetVideo(_ context.Context, id string) (*models.Video, error) {
	if v := s.video(id); v != nil {
		return v, nil
	}
	return nil, fmt.Errorf("get video: %w", db.ErrNotFound)
}

func (s *memStore) GetVideoForUpdate(ctx context.Context, id string) (*models.Video, error) {
	return s.GetVideo(ctx, id)
}

func (s *memStore) UpdateVideoModeration(_ context.Context, v *models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.videos[v.ID]
	if !ok {
		return db.ErrNotFound
	}
	v.ModerationVersion = current.ModerationVersion + 1
	s.videos[v.ID] = v.Clone()
	return nil
}

func (s *memStore) ListUserIDsByRoles(_ context.Context, roles []models.Role) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, role := range s.roles {
		for _, r := range roles {
			if role == r {
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *memStore) CreateNotification(_ context.Context, n *models.Notification) error {
	if s.failNotifications != nil {
		return s.failNotifications
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *memStore) CreateNotificationsSkipDuplicates(_ context.Context, ns []*models.Notification) ([]*models.Notification, error) {
	if s.failNotifications != nil {
		return nil, s.failNotifications
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var created []*models.Notification
	for _, n := range ns {
		if n.DedupeKey != nil && s.hasDuplicate(n) {
			continue
		}
		s.notifications = append(s.notifications, n)
		created = append(created, n)
	}
	return created, nil
}

func (s *memStore) hasDuplicate(n *models.Notification) bool {
	for _, existing := range s.notifications {
		if existing.UserID == n.UserID && existing.Type == n.Type &&
			existing.DedupeKey != nil && *existing.DedupeKey == *n.DedupeKey {
			return true
		}
	}
	return false
}

func (s *memStore) ListVideos(_ context.Context, filter models.VideoFilter) ([]*models.Video, int, error) {
	if s.failList != nil {
		return nil, 0, s.failList
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Video
	for _, v := range s.videos {
		switch filter.Status {
		case models.VideoStatusBlocked:
			if !v.IsBlocked() {
				continue
			}
		case models.VideoStatusAppeal:
			if !v.HasPendingAppeal() {
				continue
			}
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(v.Title), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, v.Clone())
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *memStore) ModerationSummary(_ context.Context) (*models.ModerationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := &models.ModerationSummary{TotalVideos: len(s.videos)}
	for _, v := range s.videos {
		if v.IsBlocked() {
			summary.BlockedVideos++
		}
		if v.HasPendingAppeal() {
			summary.PendingVideoAppeals++
		}
	}
	return summary, nil
}

func (s *memStore) ListNotifications(_ context.Context, userID string, limit, offset int) ([]*models.Notification, int, error) {
	all := s.notificationsFor(userID)
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.Notification
	err       error
}

func (p *fakePublisher) PublishNotification(_ context.Context, n *models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, n)
	return nil
}

// fakeCache mirrors the versioned writes of the Redis cache.
type fakeCache struct {
	mu       sync.Mutex
	blocked  map[string]bool
	versions map[string]int64
	err      error

	// beforeWrite runs ahead of each write, outside the lock.
	beforeWrite func(id string, blocked bool)
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		blocked:  make(map[string]bool),
		versions: make(map[string]int64),
	}
}

func (c *fakeCache) MarkBlocked(_ context.Context, id string, version int64) error {
	return c.set(id, version, true)
}

func (c *fakeCache) MarkPublic(_ context.Context, id string, version int64) error {
	return c.set(id, version, false)
}

func (c *fakeCache) set(id string, version int64, blocked bool) error {
	if c.beforeWrite != nil {
		c.beforeWrite(id, blocked)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if current, ok := c.versions[id]; ok && current >= version {
		return nil
	}
	c.versions[id] = version
	if blocked {
		c.blocked[id] = true
	} else {
		delete(c.blocked, id)
	}
	return nil
}

func (c *fakeCache) IsBlocked(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	return c.blocked[id], nil
}
