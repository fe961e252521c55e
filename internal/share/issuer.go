// ABOUTME: Session issuer: verifies slug plus optional password, mints viewer sessions
// ABOUTME: The raw bearer token exists outside transient memory only in the issue response

package share

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Talotekniikkalehtila/doku/internal/password"
	"github.com/Talotekniikkalehtila/doku/internal/store"
	"github.com/Talotekniikkalehtila/doku/internal/token"
)

// DefaultSessionTTL is how long an issued viewer session stays valid: long
// enough to outlive a viewing session across flaky connectivity, short
// enough to bound exposure of a leaked link.
const DefaultSessionTTL = 7 * 24 * time.Hour

// IssuerOptions tunes session issuance. Zero values mean defaults.
type IssuerOptions struct {
	SessionTTL time.Duration
	TokenBytes int
	Now        func() time.Time
}

// Issuer verifies slug (+ password) and mints bounded-lifetime sessions.
type Issuer struct {
	store      store.Store
	registry   *Registry
	sessionTTL time.Duration
	tokenBytes int
	now        func() time.Time
	logger     *slog.Logger
}

// Session is an issued credential: the raw bearer token and its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// NewIssuer creates a session issuer over the given store and registry.
func NewIssuer(s store.Store, registry *Registry, opts IssuerOptions) *Issuer {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.TokenBytes < token.MinSessionTokenBytes {
		opts.TokenBytes = token.DefaultSessionTokenBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Issuer{
		store:      s,
		registry:   registry,
		sessionTTL: opts.SessionTTL,
		tokenBytes: opts.TokenBytes,
		now:        opts.Now,
		logger:     slog.Default().With("component", "share.issuer"),
	}
}

// IssueSession verifies a slug and optional password and returns a fresh
// session credential. Stages are strictly ordered: resolve the link, check
// link expiry, then the password gate, then mint.
func (i *Issuer) IssueSession(ctx context.Context, slug, pw string) (*Session, error) {
	link, err := i.registry.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	now := i.now()
	if link.LinkExpired(now) {
		return nil, ErrExpired
	}

	if link.PasswordHash != nil {
		if pw == "" {
			return nil, ErrPasswordRequired
		}
		if !password.Verify(pw, *link.PasswordHash) {
			i.logger.Info("share password mismatch", "share_id", link.ID)
			return nil, ErrForbidden
		}
	}

	raw, err := token.Session(i.tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	session := &store.ShareSession{
		ID:        uuid.NewString(),
		ShareID:   link.ID,
		TokenHash: token.Fingerprint(raw),
		ExpiresAt: now.Add(i.sessionTTL).UTC(),
		CreatedAt: now.UTC(),
	}
	if err := i.store.CreateShareSession(ctx, session); err != nil {
		return nil, fmt.Errorf("storing share session: %w", err)
	}

	// Log the session row, never the raw token.
	i.logger.Info("issued share session", "share_id", link.ID, "session_id", session.ID, "expires_at", session.ExpiresAt)

	return &Session{Token: raw, ExpiresAt: session.ExpiresAt}, nil
}
