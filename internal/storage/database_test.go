package storage

import (
	"testing"
	"time"

	"github.com/memodeck/memodeck/internal/domain"
	"github.com/memodeck/memodeck/internal/fsrs"
	"github.com/memodeck/memodeck/internal/ingest"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertTestCard(t *testing.T, db *DB, fp string, sourceID int64) {
	t.Helper()
	card := domain.Card{
		Question:    "What is a goroutine?",
		Answer:      "A lightweight thread managed by the Go runtime.",
		Fingerprint: fp,
	}
	if err := db.InsertCard(card, sourceID, testNow); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}
}

func TestInsertAndFindCard(t *testing.T) {
	db := openTestDB(t)
	srcID, err := db.InsertSource("/decks/go", "local")
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}
	insertTestCard(t, db, "fp-1", srcID)

	cs, err := db.FindCardByFingerprint("fp-1")
	if err != nil {
		t.Fatalf("FindCardByFingerprint: %v", err)
	}
	if cs == nil {
		t.Fatal("card not found")
	}
	if cs.Question != "What is a goroutine?" {
		t.Errorf("Question = %q", cs.Question)
	}
	if cs.State != int(fsrs.New) || cs.Reps != 0 || cs.LastReview.Valid {
		t.Errorf("new card should carry an empty scheduling state, got %+v", cs)
	}
	if !cs.Due.Equal(testNow) {
		t.Errorf("Due = %v, want %v", cs.Due, testNow)
	}

	missing, err := db.FindCardByFingerprint("nope")
	if err != nil {
		t.Fatalf("FindCardByFingerprint(missing): %v", err)
	}
	if missing != nil {
		t.Error("unknown fingerprint should return nil")
	}
}

func TestUpdateCardStateRoundTrip(t *testing.T) {
	db := openTestDB(t)
	insertTestCard(t, db, "fp-1", 0)

	cs, err := db.FindCardByFingerprint("fp-1")
	if err != nil || cs == nil {
		t.Fatalf("FindCardByFingerprint: %v, %v", cs, err)
	}

	last := testNow
	next := fsrs.Card{
		Due:           testNow.AddDate(0, 0, 3),
		Stability:     3.173,
		Difficulty:    7.19,
		ElapsedDays:   0,
		ScheduledDays: 3,
		Reps:          1,
		State:         fsrs.Review,
		LastReview:    &last,
	}
	cs.SetScheduling(next)
	if err := db.UpdateCardState(cs); err != nil {
		t.Fatalf("UpdateCardState: %v", err)
	}

	got, err := db.FindCardByFingerprint("fp-1")
	if err != nil || got == nil {
		t.Fatalf("FindCardByFingerprint: %v, %v", got, err)
	}
	back := got.Scheduling()
	if back.State != fsrs.Review || back.Reps != 1 || back.Stability != 3.173 {
		t.Errorf("scheduling did not round-trip: %+v", back)
	}
	if back.LastReview == nil || !back.LastReview.Equal(testNow) {
		t.Errorf("LastReview = %v, want %v", back.LastReview, testNow)
	}
}

func TestGetDueCards(t *testing.T) {
	db := openTestDB(t)
	insertTestCard(t, db, "due-now", 0)

	card := domain.Card{Question: "Later", Fingerprint: "due-later"}
	future := fsrs.NewCard(testNow.AddDate(0, 0, 10))
	if err := db.ImportCard(card, future, 0); err != nil {
		t.Fatalf("ImportCard: %v", err)
	}

	due, err := db.GetDueCards(testNow)
	if err != nil {
		t.Fatalf("GetDueCards: %v", err)
	}
	if len(due) != 1 || due[0].Fingerprint != "due-now" {
		t.Errorf("due = %+v, want only due-now", due)
	}
}

func TestReviewLogs(t *testing.T) {
	db := openTestDB(t)
	insertTestCard(t, db, "fp-1", 0)

	log := fsrs.ReviewLog{
		Rating:        fsrs.Good,
		State:         fsrs.New,
		Due:           testNow,
		Stability:     0,
		Difficulty:    0,
		ElapsedDays:   0,
		ScheduledDays: 0,
		Review:        testNow,
	}
	if err := db.InsertReviewLog("fp-1", log); err != nil {
		t.Fatalf("InsertReviewLog: %v", err)
	}

	logs, err := db.ReviewLogs("fp-1")
	if err != nil {
		t.Fatalf("ReviewLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	if logs[0].Rating != fsrs.Good || logs[0].State != fsrs.New {
		t.Errorf("log = %+v", logs[0])
	}
}

func TestSources(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertSource("https://example.com/decks.git", "git")
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}

	src, err := db.FindSourceByPath("https://example.com/decks.git")
	if err != nil || src == nil {
		t.Fatalf("FindSourceByPath: %v, %v", src, err)
	}
	if src.Type != "git" || src.LastScanned.Valid {
		t.Errorf("source = %+v", src)
	}

	if err := db.UpdateSourceLastScanned(id, testNow); err != nil {
		t.Fatalf("UpdateSourceLastScanned: %v", err)
	}
	src, _ = db.FindSourceByPath("https://example.com/decks.git")
	if !src.LastScanned.Valid {
		t.Error("last_scanned should be set after stamping")
	}

	if err := db.DeleteSource(id); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	sources, err := db.GetAllSources()
	if err != nil {
		t.Fatalf("GetAllSources: %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("sources = %+v, want none", sources)
	}
}

func TestCardStateRecordValidatesBack(t *testing.T) {
	db := openTestDB(t)
	insertTestCard(t, db, "fp-1", 0)

	cs, err := db.FindCardByFingerprint("fp-1")
	if err != nil || cs == nil {
		t.Fatalf("FindCardByFingerprint: %v, %v", cs, err)
	}

	last := testNow
	cs.SetScheduling(fsrs.Card{
		Due:           testNow.AddDate(0, 0, 3),
		Stability:     3.2,
		Difficulty:    5,
		ScheduledDays: 3,
		Reps:          1,
		State:         fsrs.Review,
		LastReview:    &last,
	})

	rec := cs.Record()
	if !ingest.LooksLikeCard(rec) {
		t.Fatal("Record should satisfy the shape pre-check")
	}
	card, err := ingest.Card(rec)
	if err != nil {
		t.Fatalf("a stored row should pass strict validation, got %v", err)
	}
	if card.State != fsrs.Review || card.Stability != 3.2 {
		t.Errorf("round-tripped card = %+v", card)
	}
}
