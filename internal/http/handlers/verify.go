package handlers

import (
	"net/http"

	"github.com/preston-bernstein/archery-score-client/internal/app/verify"
	"github.com/preston-bernstein/archery-score-client/internal/http/requestutil"
)

// PendingEnds lists staged ends of a round grouped by participant.
func (h *Handler) PendingEnds(w http.ResponseWriter, r *http.Request) {
	roundID, err := requestutil.IntParam(r, "roundID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items, err := h.verify.Pending(r.Context(), roundID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"participants": items}, h.logger)
}

// ConfirmEnd confirms one staged end, possibly with corrected arrows.
func (h *Handler) ConfirmEnd(w http.ResponseWriter, r *http.Request) {
	roundID, err := requestutil.IntParam(r, "roundID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var req verify.Confirmation
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	if err := h.verify.Confirm(r.Context(), roundID, principal(r).ID, req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rejectRequest struct {
	ParticipationID int `json:"participationID"`
}

// RejectEnds drops a participant's staged arrows for the round.
func (h *Handler) RejectEnds(w http.ResponseWriter, r *http.Request) {
	roundID, err := requestutil.IntParam(r, "roundID")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	if err := h.verify.Reject(r.Context(), roundID, req.ParticipationID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
