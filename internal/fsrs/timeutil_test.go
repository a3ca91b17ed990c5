package fsrs

import (
	"testing"
	"time"
)

func TestDaysBetween(t *testing.T) {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name  string
		later time.Time
		want  float64
	}{
		{"same instant", base, 0},
		{"under a day", base.Add(23 * time.Hour), 0},
		{"exactly one day", base.Add(24 * time.Hour), 1},
		{"partial days floor", base.Add(6*24*time.Hour + 18*time.Hour), 6},
		{"long gap", base.AddDate(0, 0, 365), 365},
		{"stale clock clamps to zero", base.Add(-48 * time.Hour), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysBetween(base, tc.later); got != tc.want {
				t.Errorf("DaysBetween = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidTime(t *testing.T) {
	if ValidTime(time.Time{}) {
		t.Error("zero time should not be valid")
	}
	if !ValidTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("a real instant should be valid")
	}
}
