// Package ingest is the boundary where untyped external card data is
// turned into the canonical scheduling entity. Records typically come
// from decoded JSON or persisted rows, so every field may arrive as a
// string or as a native value; each one is coerced by an explicit,
// fallible parse that fails with the field name, the raw value and the
// violated constraint.
package ingest

import (
	"fmt"
	"time"

	"github.com/memodeck/memodeck/internal/fsrs"
)

// Record is a loosely-typed external card record. Identity fields the
// schedule does not use (ids, foreign keys, audit timestamps) may be
// present and are ignored.
type Record map[string]any

// FieldError reports one violated constraint on one field.
type FieldError struct {
	Field  string
	Value  any // the raw offending value, nil when the field is absent
	Reason string
}

func (e *FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("field %q: value %v %s", e.Field, e.Value, e.Reason)
}

// requiredFields are the keys a record must carry to be treated as
// card data at all.
var requiredFields = [...]string{"due", "stability", "difficulty", "state", "reps", "lapses"}

// LooksLikeCard is a cheap structural pre-check: does the record carry
// the mandatory card fields? It performs no coercion or range
// validation and never panics, so callers can filter heterogeneous
// input before paying for Card.
func LooksLikeCard(rec Record) bool {
	if rec == nil {
		return false
	}
	for _, f := range requiredFields {
		if _, ok := rec[f]; !ok {
			return false
		}
	}
	return true
}

// Card strictly converts rec into a canonical card. Beyond
// scheduledDays defaulting to 0 when absent, nothing is defaulted:
// every malformed or out-of-range field and every violated cross-field
// rule fails with a distinct *FieldError.
func Card(rec Record) (fsrs.Card, error) {
	var zero fsrs.Card

	state, err := parseState(rec["state"])
	if err != nil {
		return zero, err
	}
	due, err := parseInstant("due", rec["due"])
	if err != nil {
		return zero, err
	}
	stability, err := parseNumber("stability", rec["stability"])
	if err != nil {
		return zero, err
	}
	if stability < 0.1 {
		return zero, &FieldError{"stability", rec["stability"], "must be at least 0.1"}
	}
	difficulty, err := parseNumber("difficulty", rec["difficulty"])
	if err != nil {
		return zero, err
	}
	if difficulty < 1 || difficulty > 10 {
		return zero, &FieldError{"difficulty", rec["difficulty"], "must be in the range 1..10"}
	}
	elapsed, err := parseNumber("elapsedDays", rec["elapsedDays"])
	if err != nil {
		return zero, err
	}
	if elapsed < 0 {
		return zero, &FieldError{"elapsedDays", rec["elapsedDays"], "must not be negative"}
	}
	scheduled := 0.0
	if raw, ok := rec["scheduledDays"]; ok && raw != nil {
		scheduled, err = parseNumber("scheduledDays", raw)
		if err != nil {
			return zero, err
		}
		if scheduled < 0 {
			return zero, &FieldError{"scheduledDays", raw, "must not be negative"}
		}
	}
	reps, err := parseInteger("reps", rec["reps"])
	if err != nil {
		return zero, err
	}
	if reps < 0 {
		return zero, &FieldError{"reps", rec["reps"], "must not be negative"}
	}
	lapses, err := parseInteger("lapses", rec["lapses"])
	if err != nil {
		return zero, err
	}
	if lapses < 0 {
		return zero, &FieldError{"lapses", rec["lapses"], "must not be negative"}
	}

	var lastReviewAt *time.Time
	if raw, ok := rec["lastReview"]; ok && raw != nil {
		t, err := parseInstant("lastReview", raw)
		if err != nil {
			return zero, err
		}
		lastReviewAt = &t
	}

	// Cross-field rules, applied in a fixed order: the first violation
	// wins.
	if state == fsrs.New && reps != 0 {
		return zero, &FieldError{"reps", reps, "must be 0 for a NEW card"}
	}
	if state == fsrs.New && lastReviewAt != nil {
		return zero, &FieldError{"lastReview", rec["lastReview"], "must be absent for a NEW card"}
	}
	if reps > 0 && lastReviewAt == nil {
		return zero, &FieldError{"lastReview", nil, "is required once reps > 0"}
	}
	if lapses > reps {
		return zero, &FieldError{"lapses", lapses, fmt.Sprintf("must not exceed reps (%d)", reps)}
	}

	card := fsrs.Card{
		Due:           due,
		Stability:     stability,
		Difficulty:    difficulty,
		ElapsedDays:   elapsed,
		ScheduledDays: scheduled,
		Reps:          reps,
		Lapses:        lapses,
		State:         state,
	}
	card.LastReview = lastReviewAt
	return card, nil
}

// Failure reports one record that did not validate during a batch run.
type Failure struct {
	Index   int // position of the record in the input
	Message string
	Record  Record
}

// Cards validates each record independently: successes keep their
// relative order, failures are collected alongside with their original
// index and record. One malformed record never aborts the rest.
func Cards(recs []Record) ([]fsrs.Card, []Failure) {
	cards := make([]fsrs.Card, 0, len(recs))
	var failures []Failure
	for i, rec := range recs {
		card, err := Card(rec)
		if err != nil {
			failures = append(failures, Failure{Index: i, Message: err.Error(), Record: rec})
			continue
		}
		cards = append(cards, card)
	}
	return cards, failures
}
