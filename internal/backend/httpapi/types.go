package httpapi

import (
	"github.com/preston-bernstein/archery-score-client/internal/domain/arrows"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

type rangesResponse struct {
	Ranges []rounds.Range `json:"ranges"`
}

type submitResponse struct {
	Recorded bool `json:"recorded"`
}

type stagedEndResponse struct {
	Distance float64        `json:"distance"`
	EndOrder int            `json:"endOrder"`
	Arrows   []arrows.Value `json:"arrows"`
}

type rankingEnvelope struct {
	Ranking []rounds.RankingRow `json:"ranking"`
}

type loginResponse struct {
	ArcherID          int    `json:"archerID"`
	ArcherFirstName   string `json:"archerFirstName"`
	ArcherLastName    string `json:"archerLastName"`
	RecorderID        int    `json:"recorderID"`
	RecorderFirstName string `json:"recorderFirstName"`
	RecorderLastName  string `json:"recorderLastName"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
