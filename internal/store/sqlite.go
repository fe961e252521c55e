// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides report/share/session persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			cover_image_path TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_reports_owner ON reports(owner_id);

		CREATE TABLE IF NOT EXISTS report_points (
			id TEXT PRIMARY KEY,
			report_id TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (report_id) REFERENCES reports(id)
		);

		CREATE INDEX IF NOT EXISTS idx_report_points_report ON report_points(report_id);

		CREATE TABLE IF NOT EXISTS report_point_images (
			id TEXT PRIMARY KEY,
			point_id TEXT NOT NULL,
			image_path TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (point_id) REFERENCES report_points(id)
		);

		CREATE INDEX IF NOT EXISTS idx_point_images_point ON report_point_images(point_id);

		CREATE TABLE IF NOT EXISTS report_shares (
			id TEXT PRIMARY KEY,
			report_id TEXT NOT NULL,
			slug TEXT NOT NULL,
			password_hash TEXT,
			expires_at DATETIME,
			created_at DATETIME NOT NULL,
			created_by TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (report_id) REFERENCES reports(id)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_report_shares_report ON report_shares(report_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_report_shares_slug ON report_shares(slug);

		CREATE TABLE IF NOT EXISTS report_share_sessions (
			id TEXT PRIMARY KEY,
			share_id TEXT NOT NULL,
			token_hash TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (share_id) REFERENCES report_shares(id)
		);

		CREATE INDEX IF NOT EXISTS idx_share_sessions_token ON report_share_sessions(token_hash);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateReport inserts a new report.
func (s *SQLiteStore) CreateReport(ctx context.Context, report *Report) error {
	query := `
		INSERT INTO reports (id, owner_id, title, status, cover_image_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var cover sql.NullString
	if report.CoverImagePath != "" {
		cover = sql.NullString{String: report.CoverImagePath, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		report.ID,
		report.OwnerID,
		report.Title,
		report.Status,
		cover,
		report.CreatedAt.UTC().Format(time.RFC3339),
		report.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting report: %w", err)
	}

	return nil
}

// GetReport retrieves a report by ID.
func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*Report, error) {
	query := `
		SELECT id, owner_id, title, status, cover_image_path, created_at, updated_at
		FROM reports
		WHERE id = ?
	`

	var r Report
	var cover sql.NullString
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.OwnerID, &r.Title, &r.Status, &cover, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying report: %w", err)
	}

	r.CoverImagePath = cover.String
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &r, nil
}

// UpdateReportCover sets the cover image path of a report.
func (s *SQLiteStore) UpdateReportCover(ctx context.Context, id, coverImagePath string) error {
	query := `UPDATE reports SET cover_image_path = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, coverImagePath, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating report cover: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// CreateReportPoint inserts a new point marker.
func (s *SQLiteStore) CreateReportPoint(ctx context.Context, point *ReportPoint) error {
	query := `
		INSERT INTO report_points (id, report_id, x, y, label, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		point.ID,
		point.ReportID,
		point.X,
		point.Y,
		point.Label,
		point.Note,
		point.CreatedAt.UTC().Format(time.RFC3339),
		point.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting report point: %w", err)
	}

	return nil
}

// UpdateReportPoint updates the position, label, and note of a point.
func (s *SQLiteStore) UpdateReportPoint(ctx context.Context, point *ReportPoint) error {
	query := `UPDATE report_points SET x = ?, y = ?, label = ?, note = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		point.X,
		point.Y,
		point.Label,
		point.Note,
		point.UpdatedAt.UTC().Format(time.RFC3339),
		point.ID,
	)
	if err != nil {
		return fmt.Errorf("updating report point: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// ListReportPoints returns all points of a report ordered by creation time.
func (s *SQLiteStore) ListReportPoints(ctx context.Context, reportID string) ([]*ReportPoint, error) {
	query := `
		SELECT id, report_id, x, y, label, note, created_at, updated_at
		FROM report_points
		WHERE report_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("querying report points: %w", err)
	}
	defer rows.Close()

	var points []*ReportPoint
	for rows.Next() {
		var p ReportPoint
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.ReportID, &p.X, &p.Y, &p.Label, &p.Note, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning report point: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		points = append(points, &p)
	}

	return points, rows.Err()
}

// AddPointImage attaches an image to a point.
func (s *SQLiteStore) AddPointImage(ctx context.Context, img *PointImage) error {
	query := `
		INSERT INTO report_point_images (id, point_id, image_path, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		img.ID,
		img.PointID,
		img.ImagePath,
		img.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting point image: %w", err)
	}

	return nil
}

// ListPointImages returns the images of all given points.
func (s *SQLiteStore) ListPointImages(ctx context.Context, pointIDs []string) ([]*PointImage, error) {
	if len(pointIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(pointIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT id, point_id, image_path, created_at
		FROM report_point_images
		WHERE point_id IN (%s)
		ORDER BY created_at ASC, id ASC
	`, placeholders)

	args := make([]any, len(pointIDs))
	for i, id := range pointIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying point images: %w", err)
	}
	defer rows.Close()

	var images []*PointImage
	for rows.Next() {
		var img PointImage
		var createdAt string
		if err := rows.Scan(&img.ID, &img.PointID, &img.ImagePath, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning point image: %w", err)
		}
		if img.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		images = append(images, &img)
	}

	return images, rows.Err()
}

// CreateShareLink inserts a new share link. Returns ErrDuplicateShare if the
// report already has one and ErrDuplicateSlug if the slug is taken.
func (s *SQLiteStore) CreateShareLink(ctx context.Context, link *ShareLink) error {
	query := `
		INSERT INTO report_shares (id, report_id, slug, password_hash, expires_at, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		link.ID,
		link.ReportID,
		link.Slug,
		nullableString(link.PasswordHash),
		nullableTime(link.ExpiresAt),
		link.CreatedAt.UTC().Format(time.RFC3339),
		link.CreatedBy,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			if strings.Contains(err.Error(), "report_shares.slug") {
				return ErrDuplicateSlug
			}
			return ErrDuplicateShare
		}
		return fmt.Errorf("inserting share link: %w", err)
	}

	s.logger.Info("created share link", "id", link.ID, "report_id", link.ReportID)
	return nil
}

// GetShareLink retrieves a share link by ID.
func (s *SQLiteStore) GetShareLink(ctx context.Context, id string) (*ShareLink, error) {
	return s.getShareLink(ctx, "id", id)
}

// GetShareLinkByReport retrieves the share link of a report, if any.
func (s *SQLiteStore) GetShareLinkByReport(ctx context.Context, reportID string) (*ShareLink, error) {
	return s.getShareLink(ctx, "report_id", reportID)
}

// GetShareLinkBySlug retrieves a share link by its public slug.
func (s *SQLiteStore) GetShareLinkBySlug(ctx context.Context, slug string) (*ShareLink, error) {
	return s.getShareLink(ctx, "slug", slug)
}

// getShareLink retrieves a share link by one of the unique columns.
func (s *SQLiteStore) getShareLink(ctx context.Context, column, value string) (*ShareLink, error) {
	query := fmt.Sprintf(`
		SELECT id, report_id, slug, password_hash, expires_at, created_at, created_by
		FROM report_shares
		WHERE %s = ?
	`, column)

	var l ShareLink
	var passwordHash sql.NullString
	var expiresAt sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&l.ID, &l.ReportID, &l.Slug, &passwordHash, &expiresAt, &createdAt, &l.CreatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying share link: %w", err)
	}

	if passwordHash.Valid {
		l.PasswordHash = &passwordHash.String
	}
	if expiresAt.Valid {
		t, err := parseTime(expiresAt.String)
		if err != nil {
			return nil, err
		}
		l.ExpiresAt = &t
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &l, nil
}

// SetShareLinkPasswordHash sets or clears (nil) the password hash of a link.
func (s *SQLiteStore) SetShareLinkPasswordHash(ctx context.Context, id string, hash *string) error {
	query := `UPDATE report_shares SET password_hash = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, nullableString(hash), id)
	if err != nil {
		return fmt.Errorf("updating share link password: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// CreateShareSession inserts a new viewer session.
func (s *SQLiteStore) CreateShareSession(ctx context.Context, session *ShareSession) error {
	query := `
		INSERT INTO report_share_sessions (id, share_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.ShareID,
		session.TokenHash,
		session.ExpiresAt.UTC().Format(time.RFC3339),
		session.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting share session: %w", err)
	}

	return nil
}

// GetShareSessionByTokenHash retrieves the newest session matching a token
// fingerprint. Expiry is the caller's decision; the row is returned as-is.
func (s *SQLiteStore) GetShareSessionByTokenHash(ctx context.Context, tokenHash string) (*ShareSession, error) {
	query := `
		SELECT id, share_id, token_hash, expires_at, created_at
		FROM report_share_sessions
		WHERE token_hash = ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	var sess ShareSession
	var expiresAt, createdAt string

	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&sess.ID, &sess.ShareID, &sess.TokenHash, &expiresAt, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying share session: %w", err)
	}

	if sess.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &sess, nil
}

// DeleteExpiredShareSessions removes sessions whose expiry has passed.
// Correctness never depends on this; it is storage hygiene.
func (s *SQLiteStore) DeleteExpiredShareSessions(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM report_share_sessions WHERE expires_at < ?`

	result, err := s.db.ExecContext(ctx, query, now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("deleting expired share sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	if n > 0 {
		s.logger.Info("deleted expired share sessions", "count", n)
	}

	return n, nil
}

// parseTime parses an RFC3339 timestamp stored by this package.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// nullableString converts *string to a driver-friendly value.
func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// nullableTime converts *time.Time to a stored RFC3339 string or NULL.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	// SQLite returns "UNIQUE constraint failed" in the error message
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "unique constraint"))
}
