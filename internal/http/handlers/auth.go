package handlers

import (
	"net/http"

	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

// ArcherLogin exchanges archer credentials for a session token.
func (h *Handler) ArcherLogin(w http.ResponseWriter, r *http.Request) {
	h.loginAs(w, r, rounds.RoleArcher)
}

// RecorderLogin exchanges recorder credentials for a session token.
func (h *Handler) RecorderLogin(w http.ResponseWriter, r *http.Request) {
	h.loginAs(w, r, rounds.RoleRecorder)
}

func (h *Handler) loginAs(w http.ResponseWriter, r *http.Request, role rounds.Role) {
	var creds rounds.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	session, err := h.login.Login(r.Context(), role, creds)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session, h.logger)
}
