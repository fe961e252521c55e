// ABOUTME: In-memory Store implementation for testing
// ABOUTME: Mirrors the SQLite uniqueness constraints so service tests stay honest

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu          sync.RWMutex
	reports     map[string]*Report        // keyed by report ID
	points      map[string][]*ReportPoint // keyed by report ID
	images      map[string][]*PointImage  // keyed by point ID
	shares      map[string]*ShareLink     // keyed by share ID
	shareByRept map[string]string         // report ID -> share ID
	shareBySlug map[string]string         // slug -> share ID
	sessions    []*ShareSession
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		reports:     make(map[string]*Report),
		points:      make(map[string][]*ReportPoint),
		images:      make(map[string][]*PointImage),
		shares:      make(map[string]*ShareLink),
		shareByRept: make(map[string]string),
		shareBySlug: make(map[string]string),
	}
}

// CreateReport stores a new report.
func (m *MockStore) CreateReport(ctx context.Context, report *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := *report
	m.reports[r.ID] = &r
	return nil
}

// GetReport retrieves a report by ID.
func (m *MockStore) GetReport(ctx context.Context, id string) (*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

// UpdateReportCover sets the cover image path of a report.
func (m *MockStore) UpdateReportCover(ctx context.Context, id, coverImagePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return ErrNotFound
	}
	r.CoverImagePath = coverImagePath
	r.UpdatedAt = time.Now()
	return nil
}

// CreateReportPoint stores a new point.
func (m *MockStore) CreateReportPoint(ctx context.Context, point *ReportPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := *point
	m.points[p.ReportID] = append(m.points[p.ReportID], &p)
	return nil
}

// UpdateReportPoint updates the position, label, and note of a point.
func (m *MockStore) UpdateReportPoint(ctx context.Context, point *ReportPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.points[point.ReportID] {
		if p.ID == point.ID {
			p.X = point.X
			p.Y = point.Y
			p.Label = point.Label
			p.Note = point.Note
			p.UpdatedAt = point.UpdatedAt
			return nil
		}
	}
	return ErrNotFound
}

// ListReportPoints returns the points of a report ordered by creation time.
func (m *MockStore) ListReportPoints(ctx context.Context, reportID string) ([]*ReportPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	points := m.points[reportID]
	out := make([]*ReportPoint, len(points))
	for i, p := range points {
		cp := *p
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AddPointImage attaches an image to a point.
func (m *MockStore) AddPointImage(ctx context.Context, img *PointImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := *img
	m.images[i.PointID] = append(m.images[i.PointID], &i)
	return nil
}

// ListPointImages returns images for all given point IDs.
func (m *MockStore) ListPointImages(ctx context.Context, pointIDs []string) ([]*PointImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*PointImage
	for _, pid := range pointIDs {
		for _, img := range m.images[pid] {
			cp := *img
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CreateShareLink stores a new share link, enforcing the report and slug
// uniqueness constraints the way SQLite does.
func (m *MockStore) CreateShareLink(ctx context.Context, link *ShareLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shareByRept[link.ReportID]; ok {
		return ErrDuplicateShare
	}
	if _, ok := m.shareBySlug[link.Slug]; ok {
		return ErrDuplicateSlug
	}

	l := *link
	m.shares[l.ID] = &l
	m.shareByRept[l.ReportID] = l.ID
	m.shareBySlug[l.Slug] = l.ID
	return nil
}

// GetShareLink retrieves a share link by ID.
func (m *MockStore) GetShareLink(ctx context.Context, id string) (*ShareLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyShare(id)
}

// GetShareLinkByReport retrieves the share link of a report.
func (m *MockStore) GetShareLinkByReport(ctx context.Context, reportID string) (*ShareLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.shareByRept[reportID]
	if !ok {
		return nil, ErrNotFound
	}
	return m.copyShare(id)
}

// GetShareLinkBySlug retrieves a share link by slug.
func (m *MockStore) GetShareLinkBySlug(ctx context.Context, slug string) (*ShareLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.shareBySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return m.copyShare(id)
}

// copyShare returns a defensive copy of a stored share link.
// Caller must hold at least the read lock.
func (m *MockStore) copyShare(id string) (*ShareLink, error) {
	l, ok := m.shares[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *l
	if l.PasswordHash != nil {
		h := *l.PasswordHash
		out.PasswordHash = &h
	}
	if l.ExpiresAt != nil {
		t := *l.ExpiresAt
		out.ExpiresAt = &t
	}
	return &out, nil
}

// SetShareLinkPasswordHash sets or clears the password hash of a link.
func (m *MockStore) SetShareLinkPasswordHash(ctx context.Context, id string, hash *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.shares[id]
	if !ok {
		return ErrNotFound
	}
	if hash == nil {
		l.PasswordHash = nil
	} else {
		h := *hash
		l.PasswordHash = &h
	}
	return nil
}

// CreateShareSession stores a new viewer session.
func (m *MockStore) CreateShareSession(ctx context.Context, session *ShareSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *session
	m.sessions = append(m.sessions, &s)
	return nil
}

// GetShareSessionByTokenHash returns the newest session with the fingerprint.
func (m *MockStore) GetShareSessionByTokenHash(ctx context.Context, tokenHash string) (*ShareSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var newest *ShareSession
	for _, s := range m.sessions {
		if s.TokenHash != tokenHash {
			continue
		}
		if newest == nil || s.CreatedAt.After(newest.CreatedAt) {
			newest = s
		}
	}
	if newest == nil {
		return nil, ErrNotFound
	}
	out := *newest
	return &out, nil
}

// DeleteExpiredShareSessions removes sessions whose expiry has passed.
func (m *MockStore) DeleteExpiredShareSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []*ShareSession
	var deleted int64
	for _, s := range m.sessions {
		if s.ExpiresAt.Before(now) {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	m.sessions = kept
	return deleted, nil
}

// Close is a no-op for the mock.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)
