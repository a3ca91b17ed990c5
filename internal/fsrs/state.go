package fsrs

import "fmt"

// State is the lifecycle phase of a card.
type State int

const (
	New        State = 0 // never reviewed
	Learning   State = 1 // failed its very first review
	Review     State = 2 // in the long-term review cycle
	Relearning State = 3 // lapsed out of the review cycle
)

var stateNames = map[State]string{
	New:        "New",
	Learning:   "Learning",
	Review:     "Review",
	Relearning: "Relearning",
}

// IsValid reports whether s is one of the four defined states.
func (s State) IsValid() bool {
	return s >= New && s <= Relearning
}

// String returns the state name, or "State(n)" for out-of-range values.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}
