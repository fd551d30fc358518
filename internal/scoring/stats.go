package scoring

import "github.com/preston-bernstein/archery-score-client/internal/domain/arrows"

// Stats aggregates a range or a whole session.
type Stats struct {
	TotalScore int `json:"totalScore"`
	TotalX     int `json:"totalX"`
	TotalTen   int `json:"totalTen"`
	TotalNine  int `json:"totalNine"`
}

func (s Stats) add(o Stats) Stats {
	return Stats{
		TotalScore: s.TotalScore + o.TotalScore,
		TotalX:     s.TotalX + o.TotalX,
		TotalTen:   s.TotalTen + o.TotalTen,
		TotalNine:  s.TotalNine + o.TotalNine,
	}
}

// RangeStats sums every end in the range, skipping unset slots. The ten-count includes X.
func (s *Session) RangeStats(rangeIndex int) Stats {
	var out Stats
	if s == nil || rangeIndex < 0 || rangeIndex >= len(s.Ranges) {
		return out
	}
	for _, e := range s.Ranges[rangeIndex].Ends {
		for _, a := range e.Arrows {
			if !a.IsSet() {
				continue
			}
			out.TotalScore += a.Points()
			if a.IsTen() {
				out.TotalTen++
			}
			if a.IsNine() {
				out.TotalNine++
			}
			if a == arrows.X {
				out.TotalX++
			}
		}
	}
	return out
}

// EndScore sums one end (0-based index); unset slots count as zero.
func (s *Session) EndScore(rangeIndex, endIndex int) int {
	e, ok := s.End(rangeIndex, endIndex+1)
	if !ok {
		return 0
	}
	return e.Score()
}

// Totals sums RangeStats over every range.
func (s *Session) Totals() Stats {
	var out Stats
	if s == nil {
		return out
	}
	for i := range s.Ranges {
		out = out.add(s.RangeStats(i))
	}
	return out
}
