// Package timeutil parses the calendar dates the scoring backend sends.
package timeutil

import (
	"strings"
	"time"
)

// DateLayout is the backend's date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string. Surrounding space is ignored.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(value))
}

// FormatDate formats a time as YYYY-MM-DD in its current location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NewestFirst orders two backend dates descending. Dates that fail to parse
// sort after valid ones and compare equal to each other.
func NewestFirst(a, b string) int {
	ta, errA := ParseDate(a)
	tb, errB := ParseDate(b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return tb.Compare(ta)
}
