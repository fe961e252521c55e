// ABOUTME: URL minter clamping every asset URL to a short maximum TTL
// ABOUTME: Implements the two-tier expiry policy of the shared view

package assets

import "time"

// DefaultMaxURLTTL bounds every minted asset URL. Policy is 30-60 minutes;
// the default sits at the low end.
const DefaultMaxURLTTL = 30 * time.Minute

// URLSigner signs an object path with an absolute expiry.
type URLSigner interface {
	SignedURL(path string, expiresAt time.Time) (string, error)
}

// Minter wraps a URLSigner so that every URL handed to a viewer carries an
// expiry no longer than maxTTL, regardless of how long the enclosing
// session still has to live.
type Minter struct {
	signer URLSigner
	maxTTL time.Duration
	now    func() time.Time
}

// NewMinter creates a minter. maxTTL <= 0 means DefaultMaxURLTTL; now may
// be nil for the wall clock.
func NewMinter(signer URLSigner, maxTTL time.Duration, now func() time.Time) *Minter {
	if maxTTL <= 0 {
		maxTTL = DefaultMaxURLTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Minter{signer: signer, maxTTL: maxTTL, now: now}
}

// Mint returns a signed URL for the object path, valid for at most
// min(ttl, maxTTL).
func (m *Minter) Mint(path string, ttl time.Duration) (string, error) {
	if ttl <= 0 || ttl > m.maxTTL {
		ttl = m.maxTTL
	}
	return m.signer.SignedURL(path, m.now().Add(ttl))
}
