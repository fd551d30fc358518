package scoring

import (
	"github.com/preston-bernstein/archery-score-client/internal/domain/arrows"
	"github.com/preston-bernstein/archery-score-client/internal/domain/rounds"
)

// Photo is an image attached to an end. Data and Preview live in memory only
// and are dropped from draft snapshots.
type Photo struct {
	Ref         string `json:"ref"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
	Preview     string `json:"-"`
}

// HasData reports whether the image bytes are still available for detection.
func (p *Photo) HasData() bool { return p != nil && len(p.Data) > 0 }

// End is a fixed-size group of arrows at one range. DetectedArrows records
// that the arrows came from detection and, unlike ScoresDetected, survives
// photo removal.
type End struct {
	Order          int            `json:"endOrder"`
	Arrows         []arrows.Value `json:"arrows"`
	Submitted      bool           `json:"submitted"`
	Photo          *Photo         `json:"photo,omitempty"`
	ScoresDetected bool           `json:"scoresDetected"`
	DetectedArrows bool           `json:"detectedArrows,omitempty"`
}

// Complete reports whether every arrow slot is set.
func (e End) Complete() bool {
	for _, a := range e.Arrows {
		if !a.IsSet() {
			return false
		}
	}
	return true
}

// Score sums the end's arrows; unset slots count as zero.
func (e End) Score() int {
	total := 0
	for _, a := range e.Arrows {
		total += a.Points()
	}
	return total
}

// RangeScores holds the ends recorded at one range.
type RangeScores struct {
	RangeID      int     `json:"rangeID"`
	Distance     float64 `json:"distance"`
	Target       float64 `json:"target"`
	ArrowsPerEnd int     `json:"arrowsPerEnd"`
	Ends         []End   `json:"ends"`
}

// Session is the client-held scoring aggregate for one participant in one round.
type Session struct {
	RoundID       int           `json:"roundID"`
	ParticipantID int           `json:"participantID"`
	Ranges        []RangeScores `json:"ranges"`
}

// InitSession allocates empty ends for every range of a round.
func InitSession(roundID, participantID int, ranges []rounds.Range) (*Session, error) {
	if len(ranges) == 0 {
		return nil, &ConfigError{RangeIndex: -1, Reason: "round has no ranges"}
	}
	s := &Session{
		RoundID:       roundID,
		ParticipantID: participantID,
		Ranges:        make([]RangeScores, len(ranges)),
	}
	for i, r := range ranges {
		if r.TotalEnds <= 0 {
			return nil, &ConfigError{RangeIndex: i, Reason: "range declares no ends"}
		}
		if r.ArrowsPerEnd <= 0 {
			return nil, &ConfigError{RangeIndex: i, Reason: "range declares no arrows per end"}
		}
		ends := make([]End, r.TotalEnds)
		for e := range ends {
			ends[e] = End{Order: e + 1, Arrows: make([]arrows.Value, r.ArrowsPerEnd)}
		}
		s.Ranges[i] = RangeScores{
			RangeID:      r.ID,
			Distance:     r.Distance,
			Target:       r.TargetSize,
			ArrowsPerEnd: r.ArrowsPerEnd,
			Ends:         ends,
		}
	}
	return s, nil
}

// Clone returns a deep copy; photo bytes are shared since they are never mutated in place.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{RoundID: s.RoundID, ParticipantID: s.ParticipantID, Ranges: make([]RangeScores, len(s.Ranges))}
	for i, r := range s.Ranges {
		cp := r
		cp.Ends = make([]End, len(r.Ends))
		for j, e := range r.Ends {
			ce := e
			ce.Arrows = append([]arrows.Value(nil), e.Arrows...)
			if e.Photo != nil {
				p := *e.Photo
				ce.Photo = &p
			}
			cp.Ends[j] = ce
		}
		out.Ranges[i] = cp
	}
	return out
}

// End returns the end at a 1-based end number.
func (s *Session) End(rangeIndex, endNumber int) (*End, bool) {
	if s == nil || rangeIndex < 0 || rangeIndex >= len(s.Ranges) {
		return nil, false
	}
	ends := s.Ranges[rangeIndex].Ends
	if endNumber < 1 || endNumber > len(ends) {
		return nil, false
	}
	return &ends[endNumber-1], true
}

// IsEndComplete reports whether the end at a 0-based index has no unset slots.
func (s *Session) IsEndComplete(rangeIndex, endIndex int) bool {
	e, ok := s.End(rangeIndex, endIndex+1)
	return ok && e.Complete()
}

// EndState returns the state of the end at a 0-based index. Out-of-range
// indexes read as empty.
func (s *Session) EndState(rangeIndex, endIndex int) EndState {
	e, ok := s.End(rangeIndex, endIndex+1)
	if !ok {
		return StateEmpty
	}
	return StateOf(*e)
}

// IsRangeComplete reports whether every end in the range is submitted.
func (s *Session) IsRangeComplete(rangeIndex int) bool {
	if s == nil || rangeIndex < 0 || rangeIndex >= len(s.Ranges) {
		return false
	}
	for _, e := range s.Ranges[rangeIndex].Ends {
		if !e.Submitted {
			return false
		}
	}
	return true
}

// IsFinished reports whether every range is complete.
func (s *Session) IsFinished() bool {
	if s == nil || len(s.Ranges) == 0 {
		return false
	}
	for i := range s.Ranges {
		if !s.IsRangeComplete(i) {
			return false
		}
	}
	return true
}

// sameShape reports whether two sessions describe the same round layout.
func (s *Session) sameShape(other *Session) bool {
	if s == nil || other == nil || s.RoundID != other.RoundID || len(s.Ranges) != len(other.Ranges) {
		return false
	}
	for i := range s.Ranges {
		a, b := s.Ranges[i], other.Ranges[i]
		if a.Distance != b.Distance || a.ArrowsPerEnd != b.ArrowsPerEnd || len(a.Ends) != len(b.Ends) {
			return false
		}
		for j := range b.Ends {
			if len(b.Ends[j].Arrows) != a.ArrowsPerEnd {
				return false
			}
		}
	}
	return true
}
