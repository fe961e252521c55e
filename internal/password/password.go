// ABOUTME: One-way hashing and verification of share passwords
// ABOUTME: Uses bcrypt so verification cost is independent of mismatch position

package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost matches the work factor used for share passwords since the feature
// shipped; stored hashes embed their own cost so this can be raised later.
const Cost = 10

// ErrEmptySecret is returned when Hash is called with an empty string.
// Callers are expected to map empty input to "remove password" before
// reaching this package.
var ErrEmptySecret = errors.New("password must not be empty")

// Hash returns the bcrypt hash of a password.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	h, err := bcrypt.GenerateFromPassword([]byte(secret), Cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

// Verify reports whether secret matches the stored hash. A malformed or
// truncated stored hash is treated as a verification failure, never an
// error surfaced to the caller.
func Verify(secret, hash string) bool {
	if secret == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
