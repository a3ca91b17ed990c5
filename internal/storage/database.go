package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/memodeck/memodeck/internal/domain"
	"github.com/memodeck/memodeck/internal/fsrs"
	"github.com/memodeck/memodeck/internal/ingest"
	_ "modernc.org/sqlite" // registers the sqlite driver
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up
// to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CardState is one stored card: its authored content plus the full
// scheduling state.
type CardState struct {
	Fingerprint   string
	Question      string
	Answer        string
	Context       string
	Due           time.Time
	Stability     float64
	Difficulty    float64
	ElapsedDays   float64
	ScheduledDays float64
	Reps          int
	Lapses        int
	State         int
	LastReview    sql.NullTime
	SourceID      sql.NullInt64
}

// Scheduling returns the row's scheduling state as a canonical card.
func (cs *CardState) Scheduling() fsrs.Card {
	card := fsrs.Card{
		Due:           cs.Due,
		Stability:     cs.Stability,
		Difficulty:    cs.Difficulty,
		ElapsedDays:   cs.ElapsedDays,
		ScheduledDays: cs.ScheduledDays,
		Reps:          cs.Reps,
		Lapses:        cs.Lapses,
		State:         fsrs.State(cs.State),
	}
	if cs.LastReview.Valid {
		t := cs.LastReview.Time
		card.LastReview = &t
	}
	return card
}

// SetScheduling overwrites the row's scheduling state from a canonical
// card.
func (cs *CardState) SetScheduling(card fsrs.Card) {
	cs.Due = card.Due
	cs.Stability = card.Stability
	cs.Difficulty = card.Difficulty
	cs.ElapsedDays = card.ElapsedDays
	cs.ScheduledDays = card.ScheduledDays
	cs.Reps = card.Reps
	cs.Lapses = card.Lapses
	cs.State = int(card.State)
	if card.LastReview != nil {
		cs.LastReview = sql.NullTime{Time: *card.LastReview, Valid: true}
	} else {
		cs.LastReview = sql.NullTime{}
	}
}

// Record returns the row's scheduling state in the loosely-typed
// boundary shape, instants rendered as RFC 3339 strings. It is what
// external consumers of the API see and what the ingest layer accepts
// back.
func (cs *CardState) Record() ingest.Record {
	rec := ingest.Record{
		"due":           cs.Due.UTC().Format(time.RFC3339Nano),
		"stability":     cs.Stability,
		"difficulty":    cs.Difficulty,
		"elapsedDays":   cs.ElapsedDays,
		"scheduledDays": cs.ScheduledDays,
		"reps":          cs.Reps,
		"lapses":        cs.Lapses,
		"state":         fsrs.State(cs.State).String(),
	}
	if cs.LastReview.Valid {
		rec["lastReview"] = cs.LastReview.Time.UTC().Format(time.RFC3339Nano)
	}
	return rec
}

const cardColumns = `fingerprint, question, answer, context, due, stability, difficulty,
		elapsed_days, scheduled_days, reps, lapses, state, last_review, source_id`

func scanCardState(row interface{ Scan(...any) error }) (*CardState, error) {
	var cs CardState
	err := row.Scan(
		&cs.Fingerprint,
		&cs.Question,
		&cs.Answer,
		&cs.Context,
		&cs.Due,
		&cs.Stability,
		&cs.Difficulty,
		&cs.ElapsedDays,
		&cs.ScheduledDays,
		&cs.Reps,
		&cs.Lapses,
		&cs.State,
		&cs.LastReview,
		&cs.SourceID,
	)
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

// InsertCard inserts a newly discovered card with an empty scheduling
// state due immediately.
func (db *DB) InsertCard(card domain.Card, sourceID int64, now time.Time) error {
	empty := fsrs.NewCard(now)
	_, err := db.conn.Exec(`
		INSERT INTO cards (fingerprint, question, answer, context, due, state, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		card.Fingerprint,
		card.Question,
		card.Answer,
		card.Context,
		empty.Due,
		int(empty.State),
		sql.NullInt64{Int64: sourceID, Valid: sourceID != 0},
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.Fingerprint, err)
	}
	return nil
}

// ImportCard inserts a card with a pre-existing scheduling state, as
// produced by the ingest layer from external records.
func (db *DB) ImportCard(card domain.Card, state fsrs.Card, sourceID int64) error {
	var cs CardState
	cs.SetScheduling(state)
	_, err := db.conn.Exec(`
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.Fingerprint,
		card.Question,
		card.Answer,
		card.Context,
		cs.Due,
		cs.Stability,
		cs.Difficulty,
		cs.ElapsedDays,
		cs.ScheduledDays,
		cs.Reps,
		cs.Lapses,
		cs.State,
		cs.LastReview,
		sql.NullInt64{Int64: sourceID, Valid: sourceID != 0},
	)
	if err != nil {
		return fmt.Errorf("failed to import card %s: %w", card.Fingerprint, err)
	}
	return nil
}

// FindCardByFingerprint retrieves one card, nil when not stored.
func (db *DB) FindCardByFingerprint(fp string) (*CardState, error) {
	row := db.conn.QueryRow(`
		SELECT `+cardColumns+`
		FROM cards WHERE fingerprint = ?
	`, fp)

	cs, err := scanCardState(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card by fingerprint %s: %w", fp, err)
	}
	return cs, nil
}

// UpdateCardState persists an updated scheduling state.
func (db *DB) UpdateCardState(cs *CardState) error {
	_, err := db.conn.Exec(`
		UPDATE cards
		SET due = ?, stability = ?, difficulty = ?, elapsed_days = ?,
		    scheduled_days = ?, reps = ?, lapses = ?, state = ?, last_review = ?
		WHERE fingerprint = ?
	`,
		cs.Due,
		cs.Stability,
		cs.Difficulty,
		cs.ElapsedDays,
		cs.ScheduledDays,
		cs.Reps,
		cs.Lapses,
		cs.State,
		cs.LastReview,
		cs.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("failed to update card state for %s: %w", cs.Fingerprint, err)
	}
	return nil
}

// GetDueCards returns every card due at or before now, most overdue
// first. "What is due" is a storage query by design: the scheduler
// itself never touches the store.
func (db *DB) GetDueCards(now time.Time) ([]CardState, error) {
	rows, err := db.conn.Query(`
		SELECT `+cardColumns+`
		FROM cards WHERE due <= ?
		ORDER BY due ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	defer rows.Close()

	var cards []CardState
	for rows.Next() {
		cs, err := scanCardState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due card row: %w", err)
		}
		cards = append(cards, *cs)
	}
	return cards, rows.Err()
}

// GetCardsBySourceID retrieves all cards belonging to one source.
func (db *DB) GetCardsBySourceID(sourceID int64) ([]CardState, error) {
	rows, err := db.conn.Query(`
		SELECT `+cardColumns+`
		FROM cards WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	defer rows.Close()

	var cards []CardState
	for rows.Next() {
		cs, err := scanCardState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row for source ID %d: %w", sourceID, err)
		}
		cards = append(cards, *cs)
	}
	return cards, rows.Err()
}

// DeleteCardByFingerprint removes a card and its review history.
func (db *DB) DeleteCardByFingerprint(fp string) error {
	if _, err := db.conn.Exec(`DELETE FROM review_logs WHERE card_fingerprint = ?`, fp); err != nil {
		return fmt.Errorf("failed to delete review logs for %s: %w", fp, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM cards WHERE fingerprint = ?`, fp); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", fp, err)
	}
	return nil
}

// InsertReviewLog appends one review decision to the audit trail.
func (db *DB) InsertReviewLog(fp string, log fsrs.ReviewLog) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_logs (card_fingerprint, rating, state, due, stability,
			difficulty, elapsed_days, last_elapsed_days, scheduled_days, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		fp,
		int(log.Rating),
		int(log.State),
		log.Due,
		log.Stability,
		log.Difficulty,
		log.ElapsedDays,
		log.LastElapsedDays,
		log.ScheduledDays,
		log.Review,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review log for %s: %w", fp, err)
	}
	return nil
}

// ReviewLogs returns the card's review history in review order.
func (db *DB) ReviewLogs(fp string) ([]fsrs.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT rating, state, due, stability, difficulty, elapsed_days,
			last_elapsed_days, scheduled_days, reviewed_at
		FROM review_logs WHERE card_fingerprint = ?
		ORDER BY id ASC
	`, fp)
	if err != nil {
		return nil, fmt.Errorf("failed to get review logs for %s: %w", fp, err)
	}
	defer rows.Close()

	var logs []fsrs.ReviewLog
	for rows.Next() {
		var log fsrs.ReviewLog
		var rating, state int
		if err := rows.Scan(
			&rating,
			&state,
			&log.Due,
			&log.Stability,
			&log.Difficulty,
			&log.ElapsedDays,
			&log.LastElapsedDays,
			&log.ScheduledDays,
			&log.Review,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review log row for %s: %w", fp, err)
		}
		log.Rating = fsrs.Rating(rating)
		log.State = fsrs.State(state)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// Source is a card source, either a local path or a git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string // "local" or "git"
	LastScanned sql.NullTime
}

// InsertSource registers a new source and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type)
		VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path, nil when unknown.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves every registered source.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned
		FROM sources
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned stamps the source's last successful scan.
func (db *DB) UpdateSourceLastScanned(sourceID int64, at time.Time) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, at, sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source registration. Its cards remain until
// the next reconciliation decides their fate.
func (db *DB) DeleteSource(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}
