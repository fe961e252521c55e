// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers report/point/image CRUD, share link constraints, and session lookup

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return s
}

func testReport(id, owner string) *Report {
	now := time.Now().UTC().Truncate(time.Second)
	return &Report{
		ID:        id,
		OwnerID:   owner,
		Title:     "Roof inspection",
		Status:    "draft",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestCreateAndGetReport(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	report := testReport("report-1", "user-1")

	if err := s.CreateReport(ctx, report); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	got, err := s.GetReport(ctx, "report-1")
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}

	if got.OwnerID != "user-1" {
		t.Errorf("OwnerID mismatch: got %q, want %q", got.OwnerID, "user-1")
	}
	if got.Title != report.Title {
		t.Errorf("Title mismatch: got %q, want %q", got.Title, report.Title)
	}
	if got.CoverImagePath != "" {
		t.Errorf("CoverImagePath should be empty, got %q", got.CoverImagePath)
	}
}

func TestGetReport_NotFound(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.GetReport(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateReportCover(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	if err := s.CreateReport(ctx, testReport("report-1", "user-1")); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	if err := s.UpdateReportCover(ctx, "report-1", "user-1/report-1/cover.jpg"); err != nil {
		t.Fatalf("UpdateReportCover failed: %v", err)
	}

	got, err := s.GetReport(ctx, "report-1")
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if got.CoverImagePath != "user-1/report-1/cover.jpg" {
		t.Errorf("CoverImagePath = %q", got.CoverImagePath)
	}

	if err := s.UpdateReportCover(ctx, "missing", "x.jpg"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for missing report, got %v", err)
	}
}

func TestReportPointsAndImages(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	if err := s.CreateReport(ctx, testReport("report-1", "user-1")); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"point-1", "point-2"} {
		p := &ReportPoint{
			ID:        id,
			ReportID:  "report-1",
			X:         0.25,
			Y:         0.75,
			Label:     "leak",
			Note:      "water damage",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateReportPoint(ctx, p); err != nil {
			t.Fatalf("CreateReportPoint failed: %v", err)
		}
	}

	points, err := s.ListReportPoints(ctx, "report-1")
	if err != nil {
		t.Fatalf("ListReportPoints failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].ID != "point-1" || points[1].ID != "point-2" {
		t.Errorf("points out of creation order: %s, %s", points[0].ID, points[1].ID)
	}

	img := &PointImage{
		ID:        "img-1",
		PointID:   "point-1",
		ImagePath: "user-1/report-1/point-1/photo.jpg",
		CreatedAt: base,
	}
	if err := s.AddPointImage(ctx, img); err != nil {
		t.Fatalf("AddPointImage failed: %v", err)
	}

	images, err := s.ListPointImages(ctx, []string{"point-1", "point-2"})
	if err != nil {
		t.Fatalf("ListPointImages failed: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("got %d images, want 1", len(images))
	}
	if images[0].ImagePath != img.ImagePath {
		t.Errorf("ImagePath = %q, want %q", images[0].ImagePath, img.ImagePath)
	}

	// Empty ID list is not an error
	none, err := s.ListPointImages(ctx, nil)
	if err != nil {
		t.Fatalf("ListPointImages(nil) failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d images for no points", len(none))
	}
}

func TestUpdateReportPoint(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	if err := s.CreateReport(ctx, testReport("report-1", "user-1")); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	p := &ReportPoint{
		ID:        "point-1",
		ReportID:  "report-1",
		X:         0.25,
		Y:         0.75,
		Label:     "leak",
		Note:      "water damage",
		CreatedAt: base,
		UpdatedAt: base,
	}
	if err := s.CreateReportPoint(ctx, p); err != nil {
		t.Fatalf("CreateReportPoint failed: %v", err)
	}

	p.X = 0.5
	p.Label = "crack"
	p.Note = "widened since last visit"
	p.UpdatedAt = base.Add(time.Minute)
	if err := s.UpdateReportPoint(ctx, p); err != nil {
		t.Fatalf("UpdateReportPoint failed: %v", err)
	}

	points, err := s.ListReportPoints(ctx, "report-1")
	if err != nil {
		t.Fatalf("ListReportPoints failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	got := points[0]
	if got.X != 0.5 || got.Label != "crack" || got.Note != "widened since last visit" {
		t.Errorf("point not updated: %+v", got)
	}
	if !got.UpdatedAt.Equal(p.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, p.UpdatedAt)
	}

	// Unknown point
	missing := &ReportPoint{ID: "nope", ReportID: "report-1", UpdatedAt: base}
	if err := s.UpdateReportPoint(ctx, missing); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown point, got %v", err)
	}
}

func TestCreateShareLink_UniquePerReport(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	if err := s.CreateReport(ctx, testReport("report-1", "user-1")); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	link := &ShareLink{
		ID:        "share-1",
		ReportID:  "report-1",
		Slug:      "abcdefghijklmn",
		CreatedAt: now,
		CreatedBy: "user-1",
	}
	if err := s.CreateShareLink(ctx, link); err != nil {
		t.Fatalf("CreateShareLink failed: %v", err)
	}

	// Second link for the same report must hit the report_id constraint
	dup := &ShareLink{
		ID:        "share-2",
		ReportID:  "report-1",
		Slug:      "opqrstuvwxyz12",
		CreatedAt: now,
		CreatedBy: "user-1",
	}
	if err := s.CreateShareLink(ctx, dup); err != ErrDuplicateShare {
		t.Errorf("expected ErrDuplicateShare, got %v", err)
	}
}

func TestCreateShareLink_UniqueSlug(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	for _, id := range []string{"report-1", "report-2"} {
		if err := s.CreateReport(ctx, testReport(id, "user-1")); err != nil {
			t.Fatalf("CreateReport failed: %v", err)
		}
	}

	if err := s.CreateShareLink(ctx, &ShareLink{
		ID: "share-1", ReportID: "report-1", Slug: "abcdefghijklmn", CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateShareLink failed: %v", err)
	}

	err := s.CreateShareLink(ctx, &ShareLink{
		ID: "share-2", ReportID: "report-2", Slug: "abcdefghijklmn", CreatedAt: now,
	})
	if err != ErrDuplicateSlug {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}
}

func TestGetShareLink_Lookups(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	if err := s.CreateReport(ctx, testReport("report-1", "user-1")); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	expiry := now.Add(24 * time.Hour)
	hash := "$2a$10$fakehashfortest"
	link := &ShareLink{
		ID:           "share-1",
		ReportID:     "report-1",
		Slug:         "abcdefghijklmn",
		PasswordHash: &hash,
		ExpiresAt:    &expiry,
		CreatedAt:    now,
		CreatedBy:    "user-1",
	}
	if err := s.CreateShareLink(ctx, link); err != nil {
		t.Fatalf("CreateShareLink failed: %v", err)
	}

	for name, get := range map[string]func() (*ShareLink, error){
		"by id":     func() (*ShareLink, error) { return s.GetShareLink(ctx, "share-1") },
		"by report": func() (*ShareLink, error) { return s.GetShareLinkByReport(ctx, "report-1") },
		"by slug":   func() (*ShareLink, error) { return s.GetShareLinkBySlug(ctx, "abcdefghijklmn") },
	} {
		got, err := get()
		if err != nil {
			t.Fatalf("lookup %s failed: %v", name, err)
		}
		if got.ID != "share-1" {
			t.Errorf("lookup %s: ID = %q", name, got.ID)
		}
		if got.PasswordHash == nil || *got.PasswordHash != hash {
			t.Errorf("lookup %s: password hash not round-tripped", name)
		}
		if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expiry) {
			t.Errorf("lookup %s: expiry not round-tripped", name)
		}
	}

	if _, err := s.GetShareLinkBySlug(ctx, "nosuchslug1234"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown slug, got %v", err)
	}
}

func TestSetShareLinkPasswordHash(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	if err := s.CreateReport(ctx, testReport("report-1", "user-1")); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := s.CreateShareLink(ctx, &ShareLink{
		ID: "share-1", ReportID: "report-1", Slug: "abcdefghijklmn", CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateShareLink failed: %v", err)
	}

	hash := "$2a$10$fakehashfortest"
	if err := s.SetShareLinkPasswordHash(ctx, "share-1", &hash); err != nil {
		t.Fatalf("SetShareLinkPasswordHash failed: %v", err)
	}

	got, err := s.GetShareLink(ctx, "share-1")
	if err != nil {
		t.Fatalf("GetShareLink failed: %v", err)
	}
	if got.PasswordHash == nil || *got.PasswordHash != hash {
		t.Error("password hash was not set")
	}

	// Clearing
	if err := s.SetShareLinkPasswordHash(ctx, "share-1", nil); err != nil {
		t.Fatalf("clearing password hash failed: %v", err)
	}
	got, err = s.GetShareLink(ctx, "share-1")
	if err != nil {
		t.Fatalf("GetShareLink failed: %v", err)
	}
	if got.PasswordHash != nil {
		t.Error("password hash was not cleared")
	}

	if err := s.SetShareLinkPasswordHash(ctx, "missing", nil); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for missing share, got %v", err)
	}
}

func TestShareSessions_NewestFirstAndExpiry(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	if err := s.CreateReport(ctx, testReport("report-1", "user-1")); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	if err := s.CreateShareLink(ctx, &ShareLink{
		ID: "share-1", ReportID: "report-1", Slug: "abcdefghijklmn", CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateShareLink failed: %v", err)
	}

	// Two sessions with the same fingerprint; the newer one wins
	for i, id := range []string{"sess-old", "sess-new"} {
		sess := &ShareSession{
			ID:        id,
			ShareID:   "share-1",
			TokenHash: "fingerprint-a",
			ExpiresAt: now.Add(7 * 24 * time.Hour),
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateShareSession(ctx, sess); err != nil {
			t.Fatalf("CreateShareSession failed: %v", err)
		}
	}

	got, err := s.GetShareSessionByTokenHash(ctx, "fingerprint-a")
	if err != nil {
		t.Fatalf("GetShareSessionByTokenHash failed: %v", err)
	}
	if got.ID != "sess-new" {
		t.Errorf("got session %q, want the newest (sess-new)", got.ID)
	}

	if _, err := s.GetShareSessionByTokenHash(ctx, "nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown fingerprint, got %v", err)
	}
}

func TestDeleteExpiredShareSessions(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx := context.Background()
	if err := s.CreateReport(ctx, testReport("report-1", "user-1")); err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	if err := s.CreateShareLink(ctx, &ShareLink{
		ID: "share-1", ReportID: "report-1", Slug: "abcdefghijklmn", CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateShareLink failed: %v", err)
	}

	sessions := []*ShareSession{
		{ID: "expired", ShareID: "share-1", TokenHash: "fp-1", ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-8 * 24 * time.Hour)},
		{ID: "live", ShareID: "share-1", TokenHash: "fp-2", ExpiresAt: now.Add(time.Hour), CreatedAt: now},
	}
	for _, sess := range sessions {
		if err := s.CreateShareSession(ctx, sess); err != nil {
			t.Fatalf("CreateShareSession failed: %v", err)
		}
	}

	n, err := s.DeleteExpiredShareSessions(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredShareSessions failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d sessions, want 1", n)
	}

	if _, err := s.GetShareSessionByTokenHash(ctx, "fp-1"); err != ErrNotFound {
		t.Errorf("expired session should be gone, got %v", err)
	}
	if _, err := s.GetShareSessionByTokenHash(ctx, "fp-2"); err != nil {
		t.Errorf("live session should remain, got %v", err)
	}
}
