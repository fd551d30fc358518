package handlers

import (
	"fmt"
	"net/http"

	"github.com/preston-bernstein/archery-score-client/internal/app/ranking"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
	"github.com/preston-bernstein/archery-score-client/internal/export"
	"github.com/preston-bernstein/archery-score-client/internal/http/requestutil"
)

func (h *Handler) loadRanking(r *http.Request) (ranking.View, error) {
	compID, err := requestutil.IntParam(r, "competitionID")
	if err != nil {
		return ranking.View{}, err
	}
	roundID, err := requestutil.IntParam(r, "roundID")
	if err != nil {
		return ranking.View{}, err
	}
	viewer := 0
	if p := principal(r); p.Role == rounds.RoleArcher {
		viewer = p.ID
	}
	return h.ranking.Ranking(r.Context(), compID, roundID, viewer)
}

// Ranking returns the round ranking partitioned by gender.
func (h *Handler) Ranking(w http.ResponseWriter, r *http.Request) {
	view, err := h.loadRanking(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, h.logger)
}

// RankingWorkbook returns the ranking as an XLSX download.
func (h *Handler) RankingWorkbook(w http.ResponseWriter, r *http.Request) {
	view, err := h.loadRanking(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	data, err := export.RankingWorkbook(view)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	name := fmt.Sprintf("ranking-c%d-r%d.xlsx", view.CompetitionID, view.RoundID)
	writeBytes(w, export.ContentTypeXLSX, name, data)
}
