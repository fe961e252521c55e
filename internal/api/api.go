// ABOUTME: HTTP API handlers for share management, session issuance, and shared views
// ABOUTME: Maps the share error taxonomy onto stable JSON error responses

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Talotekniikkalehtila/doku/internal/auth"
	"github.com/Talotekniikkalehtila/doku/internal/share"
	"github.com/Talotekniikkalehtila/doku/internal/store"
)

// SetShareRequest is the JSON request body for POST /api/share. A nil
// Password means "don't touch the password": the handler only ensures the
// link exists and reports its current state.
type SetShareRequest struct {
	ReportID string  `json:"reportId"`
	Password *string `json:"password"`
}

// ShareResponse is the JSON response for POST /api/share. It carries the
// public slug and whether a password gate is active, never the hash.
type ShareResponse struct {
	Slug        string `json:"slug"`
	HasPassword bool   `json:"hasPassword"`
}

// IssueSessionRequest is the JSON request body for POST /api/share/session.
type IssueSessionRequest struct {
	Slug     string `json:"slug"`
	Password string `json:"password,omitempty"`
}

// SessionResponse is the JSON response for POST /api/share/session. This is
// the only place the raw session token ever appears.
type SessionResponse struct {
	SessionToken string `json:"sessionToken"`
	ExpiresAt    string `json:"expiresAt"`
}

// FetchReportRequest is the JSON request body for POST /api/share/report.
type FetchReportRequest struct {
	SessionToken string `json:"sessionToken"`
}

// Server exposes the sharing subsystem over HTTP.
type Server struct {
	registry *share.Registry
	issuer   *share.Issuer
	resolver *share.Resolver
	verifier auth.Verifier
	logger   *slog.Logger
}

// New creates an API server over the given share components.
func New(registry *share.Registry, issuer *share.Issuer, resolver *share.Resolver, verifier auth.Verifier) *Server {
	return &Server{
		registry: registry,
		issuer:   issuer,
		resolver: resolver,
		verifier: verifier,
		logger:   slog.Default().With("component", "api"),
	}
}

// RegisterRoutes installs the API routes on the mux. The share management
// endpoint requires a bearer JWT; the viewer endpoints authenticate with
// slug+password or session token instead.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	authMiddleware := auth.HTTPAuthMiddleware(s.verifier)
	mux.Handle("POST /api/share", authMiddleware(http.HandlerFunc(s.handleSetShare)))
	mux.HandleFunc("POST /api/share/session", s.handleIssueSession)
	mux.HandleFunc("POST /api/share/report", s.handleFetchSharedReport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// handleSetShare handles POST /api/share requests from report owners. It
// ensures a share link exists for the report and, when the body carries a
// password field, sets or clears the password gate.
func (s *Server) handleSetShare(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())
	if userID == "" {
		s.sendJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req SetShareRequest
	if err := decodeBody(r.Body, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ReportID == "" {
		s.sendJSONError(w, http.StatusBadRequest, "reportId is required")
		return
	}

	link, err := s.upsertShare(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, share.ErrForbidden):
			s.sendJSONError(w, http.StatusForbidden, "not allowed")
		case errors.Is(err, share.ErrNotFound):
			s.sendJSONError(w, http.StatusNotFound, "report not found")
		case errors.Is(err, share.ErrSlugConflict):
			s.logger.Error("slug allocation exhausted retries", "report_id", req.ReportID)
			s.sendJSONError(w, http.StatusInternalServerError, "could not allocate share link")
		default:
			s.logger.Error("share upsert failed", "report_id", req.ReportID, "error", err)
			s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, ShareResponse{Slug: link.Slug, HasPassword: link.PasswordHash != nil})
}

// upsertShare ensures the share link exists and applies the password change
// when the request carries one. A nil password leaves the gate untouched.
func (s *Server) upsertShare(ctx context.Context, userID string, req SetShareRequest) (*store.ShareLink, error) {
	if req.Password == nil {
		return s.registry.EnsureForReport(ctx, req.ReportID, userID)
	}
	return s.registry.SetPassword(ctx, req.ReportID, userID, *req.Password)
}

// handleIssueSession handles POST /api/share/session requests from viewers.
// A protected link without a password answers 401 with passwordRequired set
// so the client knows to prompt; everything the viewer is not allowed to
// learn collapses into 404.
func (s *Server) handleIssueSession(w http.ResponseWriter, r *http.Request) {
	var req IssueSessionRequest
	if err := decodeBody(r.Body, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, err := s.issuer.IssueSession(r.Context(), req.Slug, req.Password)
	if err != nil {
		if errors.Is(err, share.ErrPasswordRequired) {
			s.writeJSON(w, http.StatusUnauthorized, map[string]bool{"passwordRequired": true})
			return
		}
		s.writeShareError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SessionResponse{
		SessionToken: sess.Token,
		ExpiresAt:    sess.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// handleFetchSharedReport handles POST /api/share/report requests from
// viewers holding a session token.
func (s *Server) handleFetchSharedReport(w http.ResponseWriter, r *http.Request) {
	var req FetchReportRequest
	if err := decodeBody(r.Body, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	view, err := s.resolver.FetchSharedReport(r.Context(), req.SessionToken)
	if err != nil {
		// An expired session reads the same as a rejected one.
		if errors.Is(err, share.ErrExpired) {
			err = share.ErrSessionInvalid
		}
		s.writeShareError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// writeShareError maps the share error taxonomy onto viewer-facing HTTP
// responses. Unknown slugs and expired links are indistinguishable here;
// only the password gate and a rejected session surface as themselves.
func (s *Server) writeShareError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, share.ErrInvalid):
		s.sendJSONError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, share.ErrSessionInvalid):
		s.sendJSONError(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, share.ErrForbidden):
		s.sendJSONError(w, http.StatusForbidden, "wrong password")
	case errors.Is(err, share.ErrNotFound), errors.Is(err, share.ErrExpired):
		s.sendJSONError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error("share request failed", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// sendJSONError writes a JSON error response with the given status code.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r io.Reader, dst any) error {
	return json.NewDecoder(r).Decode(dst)
}
