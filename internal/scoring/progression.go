package scoring

import (
	"context"

	"github.com/preston-bernstein/archery-score-client/internal/domain/arrows"
)

// Cursor is the current entry position. EndNumber and ArrowNumber are 1-based.
type Cursor struct {
	RangeIndex  int `json:"rangeIndex"`
	EndNumber   int `json:"endNumber"`
	ArrowNumber int `json:"arrowNumber"`
}

// IsRangeUnlocked reports whether every end of every earlier range is submitted.
func (c *Controller) IsRangeUnlocked(rangeIndex int) bool {
	if rangeIndex < 0 || rangeIndex >= len(c.session.Ranges) {
		return false
	}
	for k := 0; k < rangeIndex; k++ {
		if !c.session.IsRangeComplete(k) {
			return false
		}
	}
	return true
}

// IsEndUnlocked reports whether the range is unlocked and the previous end is submitted.
func (c *Controller) IsEndUnlocked(rangeIndex, endNumber int) bool {
	if _, ok := c.session.End(rangeIndex, endNumber); !ok {
		return false
	}
	if !c.IsRangeUnlocked(rangeIndex) {
		return false
	}
	if endNumber == 1 {
		return true
	}
	return c.session.Ranges[rangeIndex].Ends[endNumber-2].Submitted
}

// IsEnterable reports whether arrows may be written to the end right now.
func (c *Controller) IsEnterable(rangeIndex, endNumber int) bool {
	e, ok := c.session.End(rangeIndex, endNumber)
	return ok && !e.Submitted && c.IsEndUnlocked(rangeIndex, endNumber)
}

// SetArrow writes a display token at the given position and advances the arrow
// number within the end. It never crosses an end boundary.
func (c *Controller) SetArrow(ctx context.Context, at Cursor, token string) error {
	e, err := c.endAt(at.RangeIndex, at.EndNumber)
	if err != nil {
		return err
	}
	if at.ArrowNumber < 1 || at.ArrowNumber > len(e.Arrows) {
		return &ValidationError{Field: "arrow", Reason: "position out of bounds"}
	}
	if err := c.checkOpen(at.RangeIndex, at.EndNumber, e); err != nil {
		return err
	}
	v, err := arrows.Parse(token)
	if err != nil {
		return validation("arrow value", token, "not in the arrow alphabet")
	}

	e.Arrows[at.ArrowNumber-1] = v
	next := at
	if at.ArrowNumber < len(e.Arrows) {
		next.ArrowNumber++
	}
	c.cursor = next
	c.persist(ctx)
	return nil
}

// Enter writes a token at the current cursor.
func (c *Controller) Enter(ctx context.Context, token string) error {
	return c.SetArrow(ctx, c.cursor, token)
}

// SelectCell moves the cursor; arrowIndex is 0-based. Locked, submitted or
// out-of-bounds targets are ignored and false is returned.
func (c *Controller) SelectCell(rangeIndex, endNumber, arrowIndex int) bool {
	e, ok := c.session.End(rangeIndex, endNumber)
	if !ok || arrowIndex < 0 || arrowIndex >= len(e.Arrows) {
		return false
	}
	if !c.IsEnterable(rangeIndex, endNumber) {
		return false
	}
	c.cursor = Cursor{RangeIndex: rangeIndex, EndNumber: endNumber, ArrowNumber: arrowIndex + 1}
	return true
}

// ResumeCursor finds the first unsubmitted end across ranges in order, pointing
// at its first unset slot. With nothing left it points at the final end.
func (c *Controller) ResumeCursor() Cursor {
	s := c.session
	if s == nil || len(s.Ranges) == 0 {
		return Cursor{EndNumber: 1, ArrowNumber: 1}
	}
	for ri, r := range s.Ranges {
		for ei, e := range r.Ends {
			if e.Submitted {
				continue
			}
			return Cursor{RangeIndex: ri, EndNumber: ei + 1, ArrowNumber: firstOpenSlot(e)}
		}
	}
	last := len(s.Ranges) - 1
	lastEnd := len(s.Ranges[last].Ends)
	return Cursor{RangeIndex: last, EndNumber: lastEnd, ArrowNumber: s.Ranges[last].ArrowsPerEnd}
}

func firstOpenSlot(e End) int {
	for i, a := range e.Arrows {
		if !a.IsSet() {
			return i + 1
		}
	}
	if len(e.Arrows) == 0 {
		return 1
	}
	return len(e.Arrows)
}
