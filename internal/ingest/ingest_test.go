package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/memodeck/memodeck/internal/fsrs"
)

func validRecord() Record {
	return Record{
		"due":         "2025-07-25T22:52:36.294Z",
		"stability":   "5.8",
		"difficulty":  3.99,
		"elapsedDays": 0,
		"reps":        1,
		"lapses":      0,
		"state":       "REVIEW",
		"lastReview":  "2025-07-19T22:52:36.294Z",
	}
}

func fieldError(t *testing.T, err error) *FieldError {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("error %v is not a *FieldError", err)
	}
	return fe
}

func TestCardCoercesStringsToNatives(t *testing.T) {
	card, err := Card(validRecord())
	if err != nil {
		t.Fatalf("Card: %v", err)
	}

	wantDue := time.Date(2025, 7, 25, 22, 52, 36, 294000000, time.UTC)
	if !card.Due.Equal(wantDue) {
		t.Errorf("Due = %v, want %v", card.Due, wantDue)
	}
	if card.Stability != 5.8 {
		t.Errorf("Stability = %v, want 5.8", card.Stability)
	}
	if card.Difficulty != 3.99 {
		t.Errorf("Difficulty = %v, want 3.99", card.Difficulty)
	}
	if card.State != fsrs.Review {
		t.Errorf("State = %v, want Review", card.State)
	}
	wantLast := time.Date(2025, 7, 19, 22, 52, 36, 294000000, time.UTC)
	if card.LastReview == nil || !card.LastReview.Equal(wantLast) {
		t.Errorf("LastReview = %v, want %v", card.LastReview, wantLast)
	}
	if card.ScheduledDays != 0 {
		t.Errorf("ScheduledDays = %v, want default 0", card.ScheduledDays)
	}
}

func TestCardAcceptsNativeDates(t *testing.T) {
	rec := validRecord()
	due := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	rec["due"] = due
	rec["stability"] = 5.8
	rec["scheduledDays"] = 6

	card, err := Card(rec)
	if err != nil {
		t.Fatalf("Card: %v", err)
	}
	if !card.Due.Equal(due) {
		t.Errorf("Due = %v, want %v", card.Due, due)
	}
	if card.ScheduledDays != 6 {
		t.Errorf("ScheduledDays = %v, want 6", card.ScheduledDays)
	}
}

func TestCardIgnoresIdentityFields(t *testing.T) {
	rec := validRecord()
	rec["id"] = "card-42"
	rec["deckId"] = 7
	rec["createdAt"] = "2020-01-01T00:00:00Z"

	if _, err := Card(rec); err != nil {
		t.Fatalf("identity fields should be ignored, got %v", err)
	}
}

func TestCardStateParsing(t *testing.T) {
	for _, name := range []string{"review", "Review", "REVIEW", "rElEaRnInG"} {
		rec := validRecord()
		rec["state"] = name
		if _, err := Card(rec); err != nil {
			t.Errorf("state %q should parse case-insensitively, got %v", name, err)
		}
	}

	rec := validRecord()
	rec["state"] = "SUSPENDED"
	fe := fieldError(t, mustFail(t, rec))
	if fe.Field != "state" {
		t.Errorf("Field = %q, want state", fe.Field)
	}
	if !strings.Contains(fe.Error(), "SUSPENDED") || !strings.Contains(fe.Error(), "RELEARNING") {
		t.Errorf("message should name the bad value and the allowed set, got %q", fe.Error())
	}

	rec = validRecord()
	rec["state"] = 2
	fe = fieldError(t, mustFail(t, rec))
	if fe.Field != "state" || !strings.Contains(fe.Reason, "string") {
		t.Errorf("numeric state should demand a string, got %v", fe)
	}
}

func mustFail(t *testing.T, rec Record) error {
	t.Helper()
	_, err := Card(rec)
	if err == nil {
		t.Fatalf("record %v should not validate", rec)
	}
	return err
}

func TestCardRangeErrors(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(Record)
		field   string
		mention string
	}{
		{"difficulty above range", func(r Record) { r["difficulty"] = 11 }, "difficulty", "1..10"},
		{"difficulty below range", func(r Record) { r["difficulty"] = "0.2" }, "difficulty", "1..10"},
		{"stability below floor", func(r Record) { r["stability"] = 0.01 }, "stability", "0.1"},
		{"stability garbage", func(r Record) { r["stability"] = "not-a-number" }, "stability", "not-a-number"},
		{"negative elapsed", func(r Record) { r["elapsedDays"] = -1 }, "elapsedDays", "negative"},
		{"negative scheduled", func(r Record) { r["scheduledDays"] = "-2" }, "scheduledDays", "negative"},
		{"fractional reps", func(r Record) { r["reps"] = 1.5 }, "reps", "integer"},
		{"fractional lapses", func(r Record) { r["lapses"] = "0.25" }, "lapses", "integer"},
		{"unparseable due", func(r Record) { r["due"] = "yesterday-ish" }, "due", "yesterday-ish"},
		{"missing due", func(r Record) { delete(r, "due") }, "due", "missing"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := validRecord()
			tc.mutate(rec)
			fe := fieldError(t, mustFail(t, rec))
			if fe.Field != tc.field {
				t.Errorf("Field = %q, want %q", fe.Field, tc.field)
			}
			if !strings.Contains(fe.Error(), tc.mention) {
				t.Errorf("message %q should mention %q", fe.Error(), tc.mention)
			}
		})
	}
}

func TestCardCrossFieldRules(t *testing.T) {
	t.Run("new card with reps", func(t *testing.T) {
		rec := validRecord()
		rec["state"] = "NEW"
		delete(rec, "lastReview")
		fe := fieldError(t, mustFail(t, rec))
		if fe.Field != "reps" || !strings.Contains(fe.Reason, "NEW") {
			t.Errorf("want a zero-reps-for-new error, got %v", fe)
		}
	})

	t.Run("new card with lastReview", func(t *testing.T) {
		rec := validRecord()
		rec["state"] = "NEW"
		rec["reps"] = 0
		rec["lapses"] = 0
		fe := fieldError(t, mustFail(t, rec))
		if fe.Field != "lastReview" || !strings.Contains(fe.Reason, "absent") {
			t.Errorf("want a no-lastReview-for-new error, got %v", fe)
		}
	})

	t.Run("reviewed card without lastReview", func(t *testing.T) {
		rec := validRecord()
		delete(rec, "lastReview")
		fe := fieldError(t, mustFail(t, rec))
		if fe.Field != "lastReview" || !strings.Contains(fe.Reason, "required") {
			t.Errorf("want a lastReview-required error, got %v", fe)
		}
	})

	t.Run("lapses exceed reps", func(t *testing.T) {
		rec := validRecord()
		rec["lapses"] = 5
		fe := fieldError(t, mustFail(t, rec))
		if fe.Field != "lapses" || !strings.Contains(fe.Reason, "reps") {
			t.Errorf("want a lapses-exceed-reps error, got %v", fe)
		}
	})

	// The reps rule fires before the lastReview rules for a NEW card
	// that violates both.
	t.Run("first violation wins", func(t *testing.T) {
		rec := validRecord()
		rec["state"] = "NEW"
		fe := fieldError(t, mustFail(t, rec))
		if fe.Field != "reps" {
			t.Errorf("Field = %q, want reps to win", fe.Field)
		}
	})
}

func TestCardsBatch(t *testing.T) {
	good := validRecord()
	bad := validRecord()
	bad["difficulty"] = 11
	alsoGood := validRecord()
	alsoGood["difficulty"] = 9.5

	cards, failures := Cards([]Record{good, bad, alsoGood})

	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
	if cards[0].Difficulty != 3.99 || cards[1].Difficulty != 9.5 {
		t.Error("valid entries should preserve relative order")
	}
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	f := failures[0]
	if f.Index != 1 {
		t.Errorf("Index = %d, want 1", f.Index)
	}
	if !strings.Contains(f.Message, "difficulty") {
		t.Errorf("Message = %q, should name the field", f.Message)
	}
	if f.Record["difficulty"] != 11 {
		t.Error("failure should carry the original record")
	}
}

func TestCardsBatchAllValid(t *testing.T) {
	cards, failures := Cards([]Record{validRecord(), validRecord()})
	if len(cards) != 2 || len(failures) != 0 {
		t.Errorf("got %d cards and %d failures, want 2 and 0", len(cards), len(failures))
	}
}

func TestLooksLikeCard(t *testing.T) {
	if !LooksLikeCard(validRecord()) {
		t.Error("a complete record should look like a card")
	}
	if LooksLikeCard(nil) {
		t.Error("nil should not look like a card")
	}
	if LooksLikeCard(Record{"title": "not a card"}) {
		t.Error("an unrelated record should not look like a card")
	}

	// Presence only: garbage values still pass the shape check.
	rec := validRecord()
	rec["stability"] = "garbage"
	if !LooksLikeCard(rec) {
		t.Error("the shape check must not inspect values")
	}

	for _, f := range requiredFields {
		rec := validRecord()
		delete(rec, f)
		if LooksLikeCard(rec) {
			t.Errorf("record without %q should not look like a card", f)
		}
	}
}
