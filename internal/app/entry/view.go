package entry

import (
	"github.com/preston-bernstein/archery-score-client/internal/domain/arrows"
	"github.com/preston-bernstein/archery-score-client/internal/scoring"
)

// View is the JSON projection of a session returned to the UI.
type View struct {
	RoundID       int            `json:"roundID"`
	ParticipantID int            `json:"participantID"`
	Cursor        scoring.Cursor `json:"cursor"`
	Ranges        []RangeView    `json:"ranges"`
	Totals        scoring.Stats  `json:"totals"`
	Finished      bool           `json:"finished"`
}

// RangeView is one range with its lock state and running stats.
type RangeView struct {
	RangeID      int           `json:"rangeID"`
	Distance     float64       `json:"distance"`
	Target       float64       `json:"target"`
	ArrowsPerEnd int           `json:"arrowsPerEnd"`
	Unlocked     bool          `json:"unlocked"`
	Complete     bool          `json:"complete"`
	Stats        scoring.Stats `json:"stats"`
	Ends         []EndView     `json:"ends"`
}

// EndView is one end. Unset arrows render as empty strings.
type EndView struct {
	Order          int              `json:"endOrder"`
	Arrows         []string         `json:"arrows"`
	State          scoring.EndState `json:"state"`
	Unlocked       bool             `json:"unlocked"`
	Score          int              `json:"score"`
	ScoresDetected bool             `json:"scoresDetected"`
	Photo          *PhotoView       `json:"photo,omitempty"`
}

// PhotoView describes an attached image. Detectable is false after a reload
// dropped the bytes.
type PhotoView struct {
	Ref         string `json:"ref"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Preview     string `json:"preview,omitempty"`
	Detectable  bool   `json:"detectable"`
}

func viewOf(c *scoring.Controller) View {
	s := c.Session()
	v := View{
		RoundID:       s.RoundID,
		ParticipantID: s.ParticipantID,
		Cursor:        c.Cursor(),
		Ranges:        make([]RangeView, len(s.Ranges)),
		Totals:        s.Totals(),
		Finished:      s.IsFinished(),
	}
	for ri, r := range s.Ranges {
		rv := RangeView{
			RangeID:      r.RangeID,
			Distance:     r.Distance,
			Target:       r.Target,
			ArrowsPerEnd: r.ArrowsPerEnd,
			Unlocked:     c.IsRangeUnlocked(ri),
			Complete:     s.IsRangeComplete(ri),
			Stats:        s.RangeStats(ri),
			Ends:         make([]EndView, len(r.Ends)),
		}
		for ei, e := range r.Ends {
			ev := EndView{
				Order:          e.Order,
				Arrows:         arrows.Tokens(e.Arrows),
				State:          scoring.StateOf(e),
				Unlocked:       c.IsEndUnlocked(ri, ei+1),
				Score:          e.Score(),
				ScoresDetected: e.ScoresDetected,
			}
			if e.Photo != nil {
				ev.Photo = &PhotoView{
					Ref:         e.Photo.Ref,
					Name:        e.Photo.Name,
					ContentType: e.Photo.ContentType,
					Preview:     e.Photo.Preview,
					Detectable:  e.Photo.HasData(),
				}
			}
			rv.Ends[ei] = ev
		}
		v.Ranges[ri] = rv
	}
	return v
}

// Details is the per-range summary of a session.
type Details struct {
	RoundID       int            `json:"roundID"`
	ParticipantID int            `json:"participantID"`
	Ranges        []RangeDetails `json:"ranges"`
	Totals        scoring.Stats  `json:"totals"`
	Finished      bool           `json:"finished"`
}

// RangeDetails lists each end's score in order.
type RangeDetails struct {
	Distance  float64       `json:"distance"`
	Target    float64       `json:"target"`
	Stats     scoring.Stats `json:"stats"`
	EndScores []int         `json:"endScores"`
	Submitted int           `json:"submittedEnds"`
}

func detailsOf(s *scoring.Session) Details {
	d := Details{
		RoundID:       s.RoundID,
		ParticipantID: s.ParticipantID,
		Ranges:        make([]RangeDetails, len(s.Ranges)),
		Totals:        s.Totals(),
		Finished:      s.IsFinished(),
	}
	for ri, r := range s.Ranges {
		rd := RangeDetails{
			Distance:  r.Distance,
			Target:    r.Target,
			Stats:     s.RangeStats(ri),
			EndScores: make([]int, len(r.Ends)),
		}
		for ei, e := range r.Ends {
			rd.EndScores[ei] = e.Score()
			if e.Submitted {
				rd.Submitted++
			}
		}
		d.Ranges[ri] = rd
	}
	return d
}

// Cumulative returns the running total after each end across all ranges.
func (d Details) Cumulative() []int {
	var out []int
	total := 0
	for _, r := range d.Ranges {
		for _, score := range r.EndScores {
			total += score
			out = append(out, total)
		}
	}
	return out
}
