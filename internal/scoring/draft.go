package scoring

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/preston-bernstein/archery-score-client/internal/domain/arrows"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

// DraftStore is the key-value cache that lets an unfinished session survive a reload.
type DraftStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// DraftKey is the cache key for a round's draft.
func DraftKey(roundID int) string {
	return "draft:" + strconv.Itoa(roundID)
}

// SaveDraft writes the full session snapshot. Photo bytes are not serialised.
func SaveDraft(store DraftStore, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return store.Set(DraftKey(s.RoundID), data)
}

// LoadDraft reads a round's draft. A missing entry returns (nil, nil).
func LoadDraft(store DraftStore, roundID int) (*Session, error) {
	if store == nil {
		return nil, nil
	}
	data, ok, err := store.Get(DraftKey(roundID))
	if err != nil || !ok {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &s, nil
}

// Reconcile merges a cached draft and the backend's submitted ends into a fresh
// session. Backend-submitted ends always win; the draft only contributes
// in-progress work for ends the backend does not hold. A draft whose layout no
// longer matches the round configuration, or that belongs to another
// participant, is ignored. It returns the number of backend ends it could not place.
func Reconcile(fresh, draft *Session, submitted []rounds.SubmittedEnd) int {
	if draft != nil && draft.ParticipantID == fresh.ParticipantID && fresh.sameShape(draft) {
		for ri := range fresh.Ranges {
			for ei := range fresh.Ranges[ri].Ends {
				src := draft.Ranges[ri].Ends[ei]
				dst := &fresh.Ranges[ri].Ends[ei]
				copy(dst.Arrows, src.Arrows)
				dst.ScoresDetected = src.ScoresDetected
				dst.DetectedArrows = src.DetectedArrows
				if src.Photo != nil {
					p := *src.Photo
					dst.Photo = &p
				}
			}
		}
	}

	unplaced := 0
	for _, sub := range submitted {
		e := findEnd(fresh, sub.Distance, sub.EndOrder)
		if e == nil {
			unplaced++
			continue
		}
		vals := make([]arrows.Value, len(e.Arrows))
		copy(vals, sub.Arrows)
		e.Arrows = vals
		e.Submitted = true
		e.Photo = nil
		e.ScoresDetected = false
		e.DetectedArrows = false
	}
	return unplaced
}

func findEnd(s *Session, distance float64, endOrder int) *End {
	for ri := range s.Ranges {
		r := &s.Ranges[ri]
		if r.Distance != distance {
			continue
		}
		if endOrder < 1 || endOrder > len(r.Ends) {
			continue
		}
		if r.Ends[endOrder-1].Submitted {
			continue
		}
		return &r.Ends[endOrder-1]
	}
	return nil
}

// Resume builds a session for a round from its range configuration, the cached
// draft and the backend's submitted ends, and returns a controller positioned on
// the first open end. The reconciled session is written back to the cache.
func Resume(roundID, participantID int, ranges []rounds.Range, submitted []rounds.SubmittedEnd, opts Options) (*Controller, error) {
	fresh, err := InitSession(roundID, participantID, ranges)
	if err != nil {
		return nil, err
	}

	draft, err := LoadDraft(opts.Drafts, roundID)
	if err != nil && opts.Logger != nil {
		opts.Logger.Warn("draft unreadable, starting clean",
			slog.Int("round_id", roundID),
			slog.Any("error", err),
		)
	}

	if unplaced := Reconcile(fresh, draft, submitted); unplaced > 0 && opts.Logger != nil {
		opts.Logger.Warn("submitted ends did not match round layout",
			slog.Int("round_id", roundID),
			slog.Int("count", unplaced),
		)
	}

	if opts.Drafts != nil {
		if err := SaveDraft(opts.Drafts, fresh); err != nil && opts.Logger != nil {
			opts.Logger.Warn("draft save failed", slog.Int("round_id", roundID), slog.Any("error", err))
		}
	}
	return NewController(fresh, opts), nil
}
