// Package share implements the secure report-sharing subsystem.
//
// # Components
//
//   - Registry: CRUD over share links. EnsureForReport is idempotent and
//     race-safe: the unique constraint on report_id is the arbiter, and a
//     lost insert race resolves by re-reading the winner's row. Slugs are
//     14+ characters of cryptographically random URL-safe base64; a
//     collision regenerates, bounded at 5 attempts.
//
//   - Issuer: verifies slug (+ optional bcrypt password) and mints a
//     bounded-lifetime session. The raw bearer token is returned exactly
//     once; only its SHA-256 fingerprint is persisted.
//
//   - Resolver: maps a session token back to its report and assembles the
//     read-only shared view. Expiry is enforced lazily at resolve time.
//     Signed asset URLs carry their own short TTL regardless of session
//     lifetime, so a leaked URL self-invalidates quickly.
//
// # Error Surface
//
// Viewer-facing lookups collapse ErrNotFound and ErrExpired into the same
// external response so valid slugs cannot be enumerated. ErrPasswordRequired
// is the single distinguishable viewer failure: reaching it already requires
// slug possession. ErrSessionInvalid marks a rejected session credential,
// kept apart from ErrNotFound so the transport can tell "bad token" from
// "report gone".
//
// # Two-Tier Expiry
//
// Sessions default to 7 days for usability; signed asset URLs default to 30
// minutes for blast-radius containment. Both are configuration, not
// invariants.
package share
