// ABOUTME: Access resolver: maps a session token back to read-only report data
// ABOUTME: Assembles the shared view with short-lived signed asset URLs

package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"

	"github.com/Talotekniikkalehtila/doku/internal/store"
	"github.com/Talotekniikkalehtila/doku/internal/token"
)

// DefaultAssetURLTTL bounds every signed asset URL handed to a viewer. A
// URL leaked from the rendered page (referrer, cache, screenshot metadata)
// self-invalidates quickly even while the session token stays valid.
const DefaultAssetURLTTL = 30 * time.Minute

// URLMinter mints time-limited signed URLs for private object paths.
type URLMinter interface {
	Mint(path string, ttl time.Duration) (string, error)
}

// ResolverOptions tunes shared-view assembly. Zero values mean defaults.
type ResolverOptions struct {
	AssetURLTTL time.Duration
	Now         func() time.Time
}

// Resolver validates session tokens and authorizes read-only retrieval of
// the bound report. Its output never authorizes a write.
type Resolver struct {
	store       store.Store
	minter      URLMinter
	assetURLTTL time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewResolver creates an access resolver over the given store and minter.
func NewResolver(s store.Store, minter URLMinter, opts ResolverOptions) *Resolver {
	if opts.AssetURLTTL <= 0 {
		opts.AssetURLTTL = DefaultAssetURLTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{
		store:       s,
		minter:      minter,
		assetURLTTL: opts.AssetURLTTL,
		now:         opts.Now,
		logger:      slog.Default().With("component", "share.resolver"),
	}
}

// SharedReport is the read-only view a session token grants access to.
type SharedReport struct {
	Report      SharedReportMeta   `json:"report"`
	Points      []SharedPoint      `json:"points"`
	PointImages []SharedPointImage `json:"pointImages"`
}

// SharedReportMeta is the report row as exposed to viewers.
type SharedReportMeta struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	CoverImagePath string `json:"coverImagePath,omitempty"`
	CoverSignedURL string `json:"coverSignedUrl,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

// SharedPoint is a point marker as exposed to viewers.
type SharedPoint struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Label     string  `json:"label"`
	Note      string  `json:"note"`
	NoteHTML  string  `json:"noteHtml,omitempty"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// SharedPointImage is an attached photo as exposed to viewers.
type SharedPointImage struct {
	ID        string `json:"id"`
	PointID   string `json:"pointId"`
	ImagePath string `json:"imagePath"`
	SignedURL string `json:"signedUrl,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Resolve maps a raw session token back to the report it grants read access
// to. Failure kinds: ErrInvalid (empty token), ErrSessionInvalid (no
// matching session, or the owning link vanished), ErrExpired (session past
// expiry).
func (r *Resolver) Resolve(ctx context.Context, rawToken string) (string, error) {
	if rawToken == "" {
		return "", fmt.Errorf("%w: missing session token", ErrInvalid)
	}

	sess, err := r.store.GetShareSessionByTokenHash(ctx, token.Fingerprint(rawToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrSessionInvalid
		}
		return "", fmt.Errorf("looking up session: %w", err)
	}

	if sess.Expired(r.now()) {
		return "", ErrExpired
	}

	link, err := r.store.GetShareLink(ctx, sess.ShareID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrSessionInvalid
		}
		return "", fmt.Errorf("looking up share link: %w", err)
	}

	return link.ReportID, nil
}

// FetchSharedReport resolves a session token and assembles the full
// read-only view: report metadata, points, attached images, and signed URLs
// for every asset. Asset URLs carry their own short TTL regardless of the
// session's remaining lifetime.
func (r *Resolver) FetchSharedReport(ctx context.Context, rawToken string) (*SharedReport, error) {
	reportID, err := r.Resolve(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	report, err := r.store.GetReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading shared report: %w", err)
	}

	points, err := r.store.ListReportPoints(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("loading report points: %w", err)
	}

	pointIDs := make([]string, len(points))
	for i, p := range points {
		pointIDs[i] = p.ID
	}
	images, err := r.store.ListPointImages(ctx, pointIDs)
	if err != nil {
		return nil, fmt.Errorf("loading point images: %w", err)
	}

	out := &SharedReport{
		Report: SharedReportMeta{
			ID:             report.ID,
			Title:          report.Title,
			Status:         report.Status,
			CoverImagePath: report.CoverImagePath,
			CreatedAt:      report.CreatedAt.UTC().Format(time.RFC3339),
		},
		Points:      make([]SharedPoint, 0, len(points)),
		PointImages: make([]SharedPointImage, 0, len(images)),
	}

	if report.CoverImagePath != "" {
		out.Report.CoverSignedURL = r.mintOrEmpty(report.CoverImagePath)
	}

	for _, p := range points {
		out.Points = append(out.Points, SharedPoint{
			ID:        p.ID,
			X:         p.X,
			Y:         p.Y,
			Label:     p.Label,
			Note:      p.Note,
			NoteHTML:  renderMarkdown(p.Note),
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	for _, img := range images {
		out.PointImages = append(out.PointImages, SharedPointImage{
			ID:        img.ID,
			PointID:   img.PointID,
			ImagePath: img.ImagePath,
			SignedURL: r.mintOrEmpty(img.ImagePath),
			CreatedAt: img.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return out, nil
}

// mintOrEmpty mints a signed URL for a path. A failed mint degrades to an
// empty URL in the payload rather than failing the whole view.
func (r *Resolver) mintOrEmpty(path string) string {
	url, err := r.minter.Mint(path, r.assetURLTTL)
	if err != nil {
		r.logger.Warn("minting signed URL failed", "path", path, "error", err)
		return ""
	}
	return url
}

// renderMarkdown converts a point note to HTML for the read-only view.
// Empty notes render to nothing.
func renderMarkdown(note string) string {
	if note == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(note), &buf); err != nil {
		return ""
	}
	return buf.String()
}
