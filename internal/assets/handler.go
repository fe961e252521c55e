// ABOUTME: HTTP handler serving private objects against signed URLs
// ABOUTME: Verifies exp+sig query parameters before touching the filesystem

package assets

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"
)

// Handler serves object bytes from a local directory to holders of a valid
// signed URL. It stands in for an external object store's signed-URL
// capability when doku runs self-contained.
type Handler struct {
	signer *Signer
	dir    string
	logger *slog.Logger
}

// NewHandler creates a handler serving objects from dir.
func NewHandler(signer *Signer, dir string) *Handler {
	return &Handler{
		signer: signer,
		dir:    dir,
		logger: slog.Default().With("component", "assets"),
	}
}

// RegisterRoutes registers the object route on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /objects/{path...}", h.handleGet)
}

// handleGet verifies the signed URL and serves the object.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	objectPath := r.PathValue("path")

	exp, err := strconv.ParseInt(r.URL.Query().Get("exp"), 10, 64)
	if err != nil {
		http.Error(w, "missing or malformed expiry", http.StatusForbidden)
		return
	}
	sig := r.URL.Query().Get("sig")

	if err := h.signer.Verify(objectPath, exp, sig, time.Now()); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, ErrURLExpired) {
			status = http.StatusGone
		}
		h.logger.Info("rejected object request", "path", objectPath, "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	// checkPath inside Verify already rejected traversal segments;
	// filepath.Join keeps the result under dir.
	http.ServeFile(w, r, filepath.Join(h.dir, filepath.FromSlash(objectPath)))
}
