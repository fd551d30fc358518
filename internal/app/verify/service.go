// Package verify is the recorder side: pending ends grouped by participant,
// confirmation and rejection.
package verify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/preston-bernstein/archery-score-client/internal/backend"
	"github.com/preston-bernstein/archery-score-client/internal/domain/arrows"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
	"github.com/preston-bernstein/archery-score-client/internal/logging"
	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

// PendingEnd is one staged end with its tokens and score.
type PendingEnd struct {
	Distance float64  `json:"distance"`
	EndOrder int      `json:"endOrder"`
	Arrows   []string `json:"arrows"`
	Score    int      `json:"score"`
}

// Participant groups the pending ends of one participation.
type Participant struct {
	ParticipationID int          `json:"participationID"`
	Ends            []PendingEnd `json:"ends"`
	Total           int          `json:"total"`
}

// Confirmation is a recorder's decision on one end. Arrows may differ from
// what the archer staged.
type Confirmation struct {
	ParticipationID int      `json:"participationID"`
	Distance        float64  `json:"distance"`
	EndOrder        int      `json:"endOrder"`
	Arrows          []string `json:"arrows"`
}

// Service proxies recorder actions to the backend.
type Service struct {
	verifier backend.Verifier
	logger   *slog.Logger
}

// NewService constructs a Service with the provided verifier.
func NewService(verifier backend.Verifier, logger *slog.Logger) *Service {
	return &Service{verifier: verifier, logger: logger}
}

// Pending lists staged ends for a round grouped by participant in backend order.
func (s *Service) Pending(ctx context.Context, roundID int) ([]Participant, error) {
	if s == nil || s.verifier == nil {
		return nil, backend.ErrUnavailable
	}
	ends, err := s.verifier.PendingEnds(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("load pending ends: %w", err)
	}
	return Group(ends), nil
}

// Group collects ends per participation, keeping first-seen order.
func Group(ends []rounds.PendingEnd) []Participant {
	index := map[int]int{}
	out := []Participant{}
	for _, e := range ends {
		i, ok := index[e.ParticipationID]
		if !ok {
			i = len(out)
			index[e.ParticipationID] = i
			out = append(out, Participant{ParticipationID: e.ParticipationID, Ends: []PendingEnd{}})
		}
		score := 0
		for _, a := range e.Arrows {
			score += a.Points()
		}
		out[i].Ends = append(out[i].Ends, PendingEnd{
			Distance: e.Distance,
			EndOrder: e.EndOrder,
			Arrows:   arrows.Tokens(e.Arrows),
			Score:    score,
		})
		out[i].Total += score
	}
	return out
}

// Confirm validates every arrow and sends the end as confirmed by recorderID.
func (s *Service) Confirm(ctx context.Context, roundID, recorderID int, c Confirmation) error {
	if s == nil || s.verifier == nil {
		return backend.ErrUnavailable
	}
	if len(c.Arrows) == 0 {
		return &scoring.ValidationError{Field: "arrows", Reason: "at least one arrow is required"}
	}
	if c.ParticipationID <= 0 || c.EndOrder <= 0 {
		return &scoring.ValidationError{Field: "end", Reason: "participation and end order are required"}
	}
	values := make([]arrows.Value, len(c.Arrows))
	for i, tok := range c.Arrows {
		v, err := arrows.Parse(tok)
		if err != nil {
			return &scoring.ValidationError{Field: "arrow", Value: tok, Reason: "not an arrow value"}
		}
		values[i] = v
	}

	err := s.verifier.ConfirmEnd(ctx, rounds.EndConfirmation{
		RoundID:         roundID,
		ParticipationID: c.ParticipationID,
		Distance:        c.Distance,
		EndOrder:        c.EndOrder,
		Arrows:          values,
		StagingStatus:   rounds.StagingConfirmed,
		RecorderID:      recorderID,
	})
	if err != nil {
		return fmt.Errorf("confirm end: %w", err)
	}
	logging.Info(ctx, s.logger, "end confirmed",
		slog.Int(logging.FieldRoundID, roundID),
		slog.Int(logging.FieldParticipantID, c.ParticipationID),
		slog.Int(logging.FieldEndOrder, c.EndOrder),
	)
	return nil
}

// Reject drops a participant's staged arrows for a round.
func (s *Service) Reject(ctx context.Context, roundID, participationID int) error {
	if s == nil || s.verifier == nil {
		return backend.ErrUnavailable
	}
	if participationID <= 0 {
		return &scoring.ValidationError{Field: "participationID", Reason: "required"}
	}
	if err := s.verifier.RejectEnds(ctx, rounds.Rejection{RoundID: roundID, ParticipationID: participationID}); err != nil {
		return fmt.Errorf("reject ends: %w", err)
	}
	logging.Info(ctx, s.logger, "staged ends rejected",
		slog.Int(logging.FieldRoundID, roundID),
		slog.Int(logging.FieldParticipantID, participationID),
	)
	return nil
}
