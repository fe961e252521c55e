// ABOUTME: Error taxonomy for the share subsystem
// ABOUTME: All store and verification failures are recovered into these kinds

package share

import "errors"

// Share errors. Handlers map these onto HTTP statuses; viewers must not be
// able to tell ErrNotFound from ErrExpired on link lookups (enumeration
// resistance), so both surface as a generic not-found there.
var (
	// ErrNotFound covers unknown slugs and links whose report has vanished.
	ErrNotFound = errors.New("share not found")

	// ErrExpired covers link-level and session-level expiry.
	ErrExpired = errors.New("share expired")

	// ErrPasswordRequired is returned when a protected link is opened
	// without a password. This is the one distinguishable failure: the
	// caller already holds the slug, so it leaks nothing new.
	ErrPasswordRequired = errors.New("password required")

	// ErrForbidden covers password mismatches and ownership failures.
	ErrForbidden = errors.New("forbidden")

	// ErrSessionInvalid means a presented session token matches no stored
	// session (or its owning link is gone). Distinct from ErrNotFound so
	// the transport can answer 401 for a bad credential but 404 for a
	// report that vanished underneath a valid one.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrSlugConflict means slug generation exhausted its retries. This is
	// a server-side fault: continued collisions indicate an entropy or
	// uniqueness-constraint problem, not bad input.
	ErrSlugConflict = errors.New("slug generation exhausted retries")

	// ErrInvalid covers malformed input such as a missing report ID.
	ErrInvalid = errors.New("invalid input")
)
