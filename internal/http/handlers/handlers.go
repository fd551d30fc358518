// Package handlers maps HTTP requests onto the scoring, ranking and
// verification services.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/archery-score-client/internal/app/competitions"
	"github.com/preston-bernstein/archery-score-client/internal/app/entry"
	"github.com/preston-bernstein/archery-score-client/internal/app/ranking"
	"github.com/preston-bernstein/archery-score-client/internal/app/verify"
	"github.com/preston-bernstein/archery-score-client/internal/auth"
	"github.com/preston-bernstein/archery-score-client/internal/export"
	"github.com/preston-bernstein/archery-score-client/internal/janitor"
)

// Deps are the services behind the routes. StatusFn backs /ready; nil means
// always ready. MaxPhotoBytes caps photo uploads and defaults to 10 MiB.
type Deps struct {
	Entry         *entry.Service
	Ranking       *ranking.Service
	Verify        *verify.Service
	Competitions  *competitions.Service
	Login         *auth.LoginService
	StatusFn      func() janitor.Status
	MaxPhotoBytes int64
	Logger        *slog.Logger
}

// Handler wires HTTP routes to the services.
type Handler struct {
	entry         *entry.Service
	ranking       *ranking.Service
	verify        *verify.Service
	competitions  *competitions.Service
	login         *auth.LoginService
	statusFn      func() janitor.Status
	palette       export.Palette
	maxPhotoBytes int64
	logger        *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(d Deps) *Handler {
	maxPhoto := d.MaxPhotoBytes
	if maxPhoto <= 0 {
		maxPhoto = defaultMaxPhotoBytes
	}
	return &Handler{
		entry:         d.Entry,
		ranking:       d.Ranking,
		verify:        d.Verify,
		competitions:  d.Competitions,
		login:         d.Login,
		statusFn:      d.StatusFn,
		palette:       export.DefaultPalette,
		maxPhotoBytes: maxPhoto,
		logger:        d.Logger,
	}
}

// Health reports the service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports whether the draft janitor is healthy.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.statusFn == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	status := h.statusFn()
	if status.IsReady() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	msg := status.LastError
	if msg == "" {
		msg = "not ready"
	}
	writeError(w, r, http.StatusServiceUnavailable, msg, h.logger)
}
