// Package store provides persistent storage for the share gateway using SQLite.
//
// # Data Models
//
// Report models:
//
//   - Report: A photo-annotation report (title, status, cover image path)
//   - ReportPoint: A coordinate marker on the cover image with label/note
//   - PointImage: A photo attached to a point
//
// Sharing models:
//
//   - ShareLink: The single public handle of a report. Carries the random
//     slug and an optional bcrypt password hash. At most one per report,
//     enforced by a unique index on report_id; the slug is unique too.
//   - ShareSession: An issued viewer credential. Only a SHA-256 fingerprint
//     of the bearer token is stored, so a database compromise cannot be
//     replayed into live sessions.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// The schema is created on open. Timestamps are stored as RFC3339 strings.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrDuplicateShare: Report already has a share link (lost ensure race)
//   - ErrDuplicateSlug: Slug collision, caller regenerates and retries
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests and NewSQLiteStore with a t.TempDir()
// path for integration tests with real SQLite.
package store
