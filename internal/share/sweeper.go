// ABOUTME: Background sweeper deleting expired share sessions
// ABOUTME: Storage hygiene only; expiry is always enforced at read time

package share

import (
	"context"
	"log/slog"
	"time"

	"github.com/Talotekniikkalehtila/doku/internal/store"
)

// DefaultSweepInterval is how often the sweeper runs.
const DefaultSweepInterval = time.Hour

// RunSessionSweeper periodically deletes expired share sessions until the
// context is cancelled. Correctness never depends on it: the resolver
// checks expiry on every lookup.
func RunSessionSweeper(ctx context.Context, s store.Store, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "share.sweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.DeleteExpiredShareSessions(ctx, time.Now()); err != nil {
				logger.Error("sweeping expired sessions failed", "error", err)
			}
		}
	}
}
