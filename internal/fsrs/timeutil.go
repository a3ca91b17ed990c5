package fsrs

import (
	"math"
	"time"
)

// DaysBetween returns the whole days elapsed from earlier to later,
// floored. A later that precedes earlier yields 0: slightly stale
// timestamps are normalized here rather than treated as errors; the
// scheduler's entry check guards against genuinely reversed time.
func DaysBetween(earlier, later time.Time) float64 {
	days := math.Floor(later.Sub(earlier).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// ValidTime reports whether t carries a real instant, i.e. is not the
// zero time.
func ValidTime(t time.Time) bool {
	return !t.IsZero()
}
