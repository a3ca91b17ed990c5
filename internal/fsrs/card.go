package fsrs

import "time"

// Card is the canonical scheduling entity. It is a plain value: the
// scheduler never mutates a Card in place, every review produces a
// fresh one.
type Card struct {
	Due           time.Time  // next scheduled review instant
	Stability     float64    // days until recall decays to the target retention
	Difficulty    float64    // intrinsic hardness for this learner, in [1,10]
	ElapsedDays   float64    // whole days since the previous review at the last decision
	ScheduledDays float64    // interval chosen at the last decision, in days
	Reps          int        // completed reviews
	Lapses        int        // reviews rated Again after the card had been seen
	State         State      // lifecycle phase
	LastReview    *time.Time // nil for a never-reviewed card
}

// NewCard returns an empty card due immediately: state New, zero
// memory estimates, no review history.
func NewCard(now time.Time) Card {
	return Card{
		Due:   now,
		State: New,
	}
}

// clone returns a deep copy of the card. LastReview is copied by value.
func (c Card) clone() Card {
	out := c
	if c.LastReview != nil {
		v := *c.LastReview
		out.LastReview = &v
	}
	return out
}

// ReviewLog is an immutable snapshot of a card as it looked right
// before one scheduling decision, plus the rating that was applied.
// It is an audit record: the scheduler writes it once and never reads
// it back.
type ReviewLog struct {
	Rating          Rating    // the rating the learner chose
	State           State     // pre-transition state
	Due             time.Time // pre-transition due instant
	Stability       float64   // pre-transition stability
	Difficulty      float64   // pre-transition difficulty
	ElapsedDays     float64   // days elapsed at this review
	LastElapsedDays float64   // the pre-transition card's ElapsedDays
	ScheduledDays   float64   // pre-transition scheduled interval
	Review          time.Time // the review instant
}
