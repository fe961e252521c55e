// ABOUTME: Tests for JWT verification and ownership checks
// ABOUTME: Covers round-trips, expiry, wrong secrets, and owner mismatches

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Talotekniikkalehtila/doku/internal/store"
)

// testSecret is a 32-byte secret that meets MinSecretLength requirement.
var testSecret = []byte("doku-owner-auth-secret-32-bytes!")

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)

	tok, err := v.Generate("user-1", time.Hour)
	require.NoError(t, err)

	uid, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestJWTVerifier_ShortSecret(t *testing.T) {
	_, err := NewJWTVerifier([]byte("short"))
	assert.Error(t, err)
}

func TestJWTVerifier_Expired(t *testing.T) {
	v, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)

	tok, err := v.Generate("user-1", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTVerifier_WrongSecret(t *testing.T) {
	v1, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)
	v2, err := NewJWTVerifier([]byte("a-completely-different-32b-secret"))
	require.NoError(t, err)

	tok, err := v1.Generate("user-1", time.Hour)
	require.NoError(t, err)

	_, err = v2.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_Garbage(t *testing.T) {
	v, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)

	_, err = v.Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIsOwner(t *testing.T) {
	ctx := context.Background()
	s := store.NewMockStore()
	require.NoError(t, s.CreateReport(ctx, &store.Report{ID: "report-1", OwnerID: "user-1"}))

	assert.NoError(t, IsOwner(ctx, s, "user-1", "report-1"))
	assert.ErrorIs(t, IsOwner(ctx, s, "user-2", "report-1"), ErrNotOwner)
	assert.True(t, errors.Is(IsOwner(ctx, s, "user-1", "missing"), store.ErrNotFound))
}
