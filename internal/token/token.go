// ABOUTME: Cryptographically random slug and session token generation
// ABOUTME: Plus the SHA-256 fingerprint used to store session tokens at rest

package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// MinSlugLength is the shortest slug we will mint. 14 characters of the
// 64-symbol URL-safe alphabet give a search space above 2^84.
const MinSlugLength = 14

// MinSessionTokenBytes is the smallest entropy we accept for a session
// token. 32 bytes keeps the token itself strong enough that a fast digest
// fingerprint is sufficient for storage.
const MinSessionTokenBytes = 32

// DefaultSessionTokenBytes matches the issuer's default of 48 random bytes.
const DefaultSessionTokenBytes = 48

var (
	// ErrSlugTooShort is returned when a caller asks for a slug below MinSlugLength.
	ErrSlugTooShort = errors.New("slug length below minimum")

	// ErrTokenTooShort is returned when a caller asks for a session token below MinSessionTokenBytes.
	ErrTokenTooShort = errors.New("session token byte length below minimum")
)

// Slug returns a random URL-safe token of exactly length characters drawn
// from the base64url alphabet (letters, digits, '-', '_').
func Slug(length int) (string, error) {
	if length < MinSlugLength {
		return "", fmt.Errorf("%w: %d < %d", ErrSlugTooShort, length, MinSlugLength)
	}

	// RawURLEncoding yields 4 characters per 3 bytes; overshoot and trim.
	raw := make([]byte, (length*3+3)/4+2)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}

	s := base64.RawURLEncoding.EncodeToString(raw)
	return s[:length], nil
}

// Session returns a random bearer token of byteLen random bytes, URL-safe
// base64 encoded without padding.
func Session(byteLen int) (string, error) {
	if byteLen < MinSessionTokenBytes {
		return "", fmt.Errorf("%w: %d < %d", ErrTokenTooShort, byteLen, MinSessionTokenBytes)
	}

	raw := make([]byte, byteLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Fingerprint returns the hex-encoded SHA-256 digest of a token. This is
// what gets persisted in place of the raw token: the token's own entropy
// makes a fast digest safe, unlike low-entropy passwords which go through
// the adaptive hasher in the password package.
func Fingerprint(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
