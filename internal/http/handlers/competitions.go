package handlers

import (
	"net/http"

	"github.com/preston-bernstein/archery-score-client/internal/http/requestutil"
)

// Competitions lists every competition.
func (h *Handler) Competitions(w http.ResponseWriter, r *http.Request) {
	items, err := h.competitions.Competitions(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"competitions": items}, h.logger)
}

// CompetitionRounds lists the rounds of one competition.
func (h *Handler) CompetitionRounds(w http.ResponseWriter, r *http.Request) {
	id, err := requestutil.IntParam(r, "competitionID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items, err := h.competitions.Rounds(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rounds": items}, h.logger)
}

// ArcherCompetitions lists the calling archer's competitions with their
// participation ids.
func (h *Handler) ArcherCompetitions(w http.ResponseWriter, r *http.Request) {
	items, err := h.competitions.ArcherCompetitions(r.Context(), principal(r).ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"competitions": items}, h.logger)
}
