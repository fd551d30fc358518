package httpapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

func mapStagedEnds(in []stagedEndResponse) []rounds.SubmittedEnd {
	out := make([]rounds.SubmittedEnd, 0, len(in))
	for _, e := range in {
		out = append(out, rounds.SubmittedEnd{
			Distance: e.Distance,
			EndOrder: e.EndOrder,
			Arrows:   e.Arrows,
		})
	}
	return out
}

func mapIdentity(role rounds.Role, r loginResponse) rounds.Identity {
	if role == rounds.RoleRecorder {
		return rounds.Identity{
			ID:        r.RecorderID,
			Role:      role,
			FirstName: r.RecorderFirstName,
			LastName:  r.RecorderLastName,
		}
	}
	return rounds.Identity{
		ID:        r.ArcherID,
		Role:      rounds.RoleArcher,
		FirstName: r.ArcherFirstName,
		LastName:  r.ArcherLastName,
	}
}

// decodeRanking accepts either a bare list of rows or an object with a
// "ranking" list.
func decodeRanking(raw json.RawMessage) ([]rounds.RankingRow, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []rounds.RankingRow{}, nil
	}
	if trimmed[0] == '[' {
		var rows []rounds.RankingRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}
	var env rankingEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	if env.Ranking == nil {
		env.Ranking = []rounds.RankingRow{}
	}
	return env.Ranking, nil
}

func errorMessage(body []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}
