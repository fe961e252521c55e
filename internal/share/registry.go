// ABOUTME: Share link registry: ensure-per-report, password updates, slug lookup
// ABOUTME: The unique constraints on report_id and slug arbitrate concurrent calls

package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Talotekniikkalehtila/doku/internal/auth"
	"github.com/Talotekniikkalehtila/doku/internal/password"
	"github.com/Talotekniikkalehtila/doku/internal/store"
	"github.com/Talotekniikkalehtila/doku/internal/token"
)

// DefaultSlugLength is 14 characters of the URL-safe base64 alphabet,
// about 84 bits of entropy.
const DefaultSlugLength = 14

// DefaultSlugRetries bounds slug regeneration on collision before the
// registry gives up with ErrSlugConflict.
const DefaultSlugRetries = 5

// RegistryOptions tunes slug generation. Zero values mean defaults.
type RegistryOptions struct {
	SlugLength  int
	SlugRetries int
	Now         func() time.Time
}

// Registry manages the share-link rows of reports.
type Registry struct {
	store       store.Store
	slugLength  int
	slugRetries int
	now         func() time.Time
	logger      *slog.Logger
}

// NewRegistry creates a share link registry backed by the given store.
func NewRegistry(s store.Store, opts RegistryOptions) *Registry {
	if opts.SlugLength < token.MinSlugLength {
		opts.SlugLength = DefaultSlugLength
	}
	if opts.SlugRetries <= 0 {
		opts.SlugRetries = DefaultSlugRetries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		store:       s,
		slugLength:  opts.SlugLength,
		slugRetries: opts.SlugRetries,
		now:         opts.Now,
		logger:      slog.Default().With("component", "share.registry"),
	}
}

// EnsureForReport returns the report's share link, creating one with a fresh
// slug if none exists. Safe under concurrent calls for the same report: a
// lost insert race is resolved by re-reading the winner's row, so both
// callers observe the same slug.
func (r *Registry) EnsureForReport(ctx context.Context, reportID, userID string) (*store.ShareLink, error) {
	if reportID == "" {
		return nil, fmt.Errorf("%w: missing report id", ErrInvalid)
	}

	if err := auth.IsOwner(ctx, r.store, userID, reportID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, auth.ErrNotOwner) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("checking ownership: %w", err)
	}

	link, err := r.store.GetShareLinkByReport(ctx, reportID)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up share link: %w", err)
	}

	for attempt := 0; attempt < r.slugRetries; attempt++ {
		slug, err := token.Slug(r.slugLength)
		if err != nil {
			return nil, fmt.Errorf("generating slug: %w", err)
		}

		link := &store.ShareLink{
			ID:        uuid.NewString(),
			ReportID:  reportID,
			Slug:      slug,
			CreatedAt: r.now().UTC(),
			CreatedBy: userID,
		}

		err = r.store.CreateShareLink(ctx, link)
		switch {
		case err == nil:
			return link, nil
		case errors.Is(err, store.ErrDuplicateShare):
			// Someone else created the link between our read and insert.
			// Their row is the truth.
			existing, err := r.store.GetShareLinkByReport(ctx, reportID)
			if err != nil {
				return nil, fmt.Errorf("re-reading share link after lost race: %w", err)
			}
			return existing, nil
		case errors.Is(err, store.ErrDuplicateSlug):
			r.logger.Warn("slug collision, regenerating", "attempt", attempt+1)
			continue
		default:
			return nil, fmt.Errorf("creating share link: %w", err)
		}
	}

	return nil, ErrSlugConflict
}

// SetPassword sets or clears the password of a report's share link,
// creating the link first if needed. Empty or whitespace-only input clears
// the password rather than setting an empty secret.
func (r *Registry) SetPassword(ctx context.Context, reportID, userID, raw string) (*store.ShareLink, error) {
	link, err := r.EnsureForReport(ctx, reportID, userID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(raw) == "" {
		if err := r.store.SetShareLinkPasswordHash(ctx, link.ID, nil); err != nil {
			return nil, fmt.Errorf("clearing share password: %w", err)
		}
		link.PasswordHash = nil
		r.logger.Info("cleared share password", "share_id", link.ID)
		return link, nil
	}

	hash, err := password.Hash(raw)
	if err != nil {
		return nil, fmt.Errorf("hashing share password: %w", err)
	}
	if err := r.store.SetShareLinkPasswordHash(ctx, link.ID, &hash); err != nil {
		return nil, fmt.Errorf("storing share password: %w", err)
	}
	link.PasswordHash = &hash

	r.logger.Info("set share password", "share_id", link.ID)
	return link, nil
}

// GetBySlug resolves a public slug to its share link. Unknown slugs and
// links whose report has been deleted are indistinguishable: both return
// ErrNotFound so valid slugs cannot be enumerated.
func (r *Registry) GetBySlug(ctx context.Context, slug string) (*store.ShareLink, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: missing slug", ErrInvalid)
	}

	link, err := r.store.GetShareLinkBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up slug: %w", err)
	}

	if _, err := r.store.GetReport(ctx, link.ReportID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up shared report: %w", err)
	}

	return link, nil
}
