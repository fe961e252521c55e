// ABOUTME: Store interface and data types for doku share-gateway persistence
// ABOUTME: Defines Report, ReportPoint, PointImage, ShareLink, ShareSession and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateShare is returned when inserting a share link for a report
// that already has one. The unique constraint on report_id is the arbiter
// under concurrent ensure calls.
var ErrDuplicateShare = errors.New("share link already exists for report")

// ErrDuplicateSlug is returned when an inserted slug collides with an
// existing one. Callers regenerate and retry.
var ErrDuplicateSlug = errors.New("slug already exists")

// Report is an annotation report: a cover image plus marked points.
type Report struct {
	ID             string
	OwnerID        string
	Title          string
	Status         string
	CoverImagePath string // object-store path, empty if no cover uploaded yet
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReportPoint is a coordinate marker placed on a report's cover image.
// X and Y are fractions of the image dimensions in [0,1].
type ReportPoint struct {
	ID        string
	ReportID  string
	X         float64
	Y         float64
	Label     string
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PointImage is a photo attached to a single report point.
type PointImage struct {
	ID        string
	PointID   string
	ImagePath string // object-store path
	CreatedAt time.Time
}

// ShareLink is the one public handle a report can have. The slug is the
// only externally visible identifier; possession of it (plus the optional
// password) is what admits a viewer.
type ShareLink struct {
	ID           string
	ReportID     string
	Slug         string
	PasswordHash *string    // nil means the link is open
	ExpiresAt    *time.Time // nil means no link-level expiry
	CreatedAt    time.Time
	CreatedBy    string
}

// ShareSession is an issued viewer credential. Only the SHA-256 fingerprint
// of the bearer token is stored; the raw token leaves the process exactly
// once, in the issue response.
type ShareSession struct {
	ID        string
	ShareID   string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session has passed its expiry at the given time.
func (s *ShareSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LinkExpired reports whether the link itself has expired at the given time.
// Links without an expiry never expire.
func (l *ShareLink) LinkExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// Store defines the interface for report and share persistence.
type Store interface {
	// Reports
	CreateReport(ctx context.Context, report *Report) error
	GetReport(ctx context.Context, id string) (*Report, error)
	UpdateReportCover(ctx context.Context, id, coverImagePath string) error

	// Points and images
	CreateReportPoint(ctx context.Context, point *ReportPoint) error
	UpdateReportPoint(ctx context.Context, point *ReportPoint) error
	ListReportPoints(ctx context.Context, reportID string) ([]*ReportPoint, error)
	AddPointImage(ctx context.Context, img *PointImage) error
	ListPointImages(ctx context.Context, pointIDs []string) ([]*PointImage, error)

	// Share links
	CreateShareLink(ctx context.Context, link *ShareLink) error
	GetShareLink(ctx context.Context, id string) (*ShareLink, error)
	GetShareLinkByReport(ctx context.Context, reportID string) (*ShareLink, error)
	GetShareLinkBySlug(ctx context.Context, slug string) (*ShareLink, error)
	SetShareLinkPasswordHash(ctx context.Context, id string, hash *string) error

	// Share sessions
	CreateShareSession(ctx context.Context, session *ShareSession) error
	GetShareSessionByTokenHash(ctx context.Context, tokenHash string) (*ShareSession, error)
	DeleteExpiredShareSessions(ctx context.Context, now time.Time) (int64, error)

	Close() error
}
