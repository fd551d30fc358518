package scoring

import (
	"context"
	"log/slog"

	"github.com/preston-bernstein/archery-score-client/internal/domain/arrows"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

// EndState is the lifecycle position of an end.
type EndState string

const (
	StateEmpty           EndState = "empty"
	StatePartiallyFilled EndState = "partially_filled"
	StateComplete        EndState = "complete"
	StateSubmitted       EndState = "submitted"
)

// StateOf derives the lifecycle state from the arrows and the submitted flag.
func StateOf(e End) EndState {
	if e.Submitted {
		return StateSubmitted
	}
	set := 0
	for _, a := range e.Arrows {
		if a.IsSet() {
			set++
		}
	}
	switch {
	case set == 0:
		return StateEmpty
	case set < len(e.Arrows):
		return StatePartiallyFilled
	default:
		return StateComplete
	}
}

// EventKind names a completion notification.
type EventKind string

const (
	EventRangeCompleted   EventKind = "range_completed"
	EventSessionCompleted EventKind = "session_completed"
)

// Notification is emitted when a submission completes a range or the session.
type Notification struct {
	Kind          EventKind `json:"kind"`
	RoundID       int       `json:"roundID"`
	ParticipantID int       `json:"participantID"`
	RangeIndex    int       `json:"rangeIndex"`
	Distance      float64   `json:"distance"`
	Stats         Stats     `json:"stats"`
}

// SubmitEnd sends a complete end to the backend. On any failure the session is
// left untouched and a SubmissionFailed is returned; there is no automatic retry.
func (c *Controller) SubmitEnd(ctx context.Context, rangeIndex, endNumber int) ([]Notification, error) {
	e, err := c.endAt(rangeIndex, endNumber)
	if err != nil {
		return nil, err
	}
	if err := c.checkOpen(rangeIndex, endNumber, e); err != nil {
		return nil, err
	}
	if !e.Complete() {
		return nil, &ValidationError{Field: "end", Reason: "every arrow must be entered before submission"}
	}
	if c.opts.Submitter == nil {
		return nil, &SubmissionFailed{RangeIndex: rangeIndex, EndNumber: endNumber, Err: ErrNoSubmitter}
	}

	r := c.session.Ranges[rangeIndex]
	sub := rounds.EndSubmission{
		RoundID:         c.session.RoundID,
		ParticipationID: c.session.ParticipantID,
		Distance:        r.Distance,
		Target:          r.Target,
		EndOrder:        e.Order,
		Arrows:          append([]arrows.Value(nil), e.Arrows...),
	}
	recorded, err := c.opts.Submitter.SubmitEnd(ctx, sub)
	if err == nil && !recorded {
		err = ErrNotRecorded
	}
	if err != nil {
		return nil, &SubmissionFailed{RangeIndex: rangeIndex, EndNumber: endNumber, Err: err}
	}

	e.Submitted = true
	if e.Photo != nil {
		// Only the preview is needed once submitted.
		e.Photo.Data = nil
	}
	c.persist(ctx)
	if c.opts.Logger != nil {
		c.opts.Logger.InfoContext(ctx, "end submitted",
			slog.Int("round_id", c.session.RoundID),
			slog.Int("range_index", rangeIndex),
			slog.Int("end_order", e.Order),
			slog.Int("end_score", e.Score()),
		)
	}

	notes := c.completions(rangeIndex)
	c.notify(ctx, notes)
	return notes, nil
}

func (c *Controller) completions(rangeIndex int) []Notification {
	if !c.session.IsRangeComplete(rangeIndex) {
		return nil
	}
	r := c.session.Ranges[rangeIndex]
	notes := []Notification{{
		Kind:          EventRangeCompleted,
		RoundID:       c.session.RoundID,
		ParticipantID: c.session.ParticipantID,
		RangeIndex:    rangeIndex,
		Distance:      r.Distance,
		Stats:         c.session.RangeStats(rangeIndex),
	}}
	if c.session.IsFinished() {
		notes = append(notes, Notification{
			Kind:          EventSessionCompleted,
			RoundID:       c.session.RoundID,
			ParticipantID: c.session.ParticipantID,
			RangeIndex:    rangeIndex,
			Distance:      r.Distance,
			Stats:         c.session.Totals(),
		})
	}
	return notes
}
