// Package web exposes the review loop as a JSON API. It is a thin
// collaborator around the scheduling engine: handlers load a card from
// the store, ask the engine for the four candidate outcomes, apply the
// one the learner chose and persist it together with its audit record.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"

	"github.com/memodeck/memodeck/internal/fsrs"
	"github.com/memodeck/memodeck/internal/ingest"
	"github.com/memodeck/memodeck/internal/reconcile"
	"github.com/memodeck/memodeck/internal/storage"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	db        *storage.DB
	scheduler *fsrs.Scheduler
	reposDir  string
	handler   http.Handler
	now       func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, scheduler *fsrs.Scheduler, reposDir string) *Server {
	s := &Server{
		db:        db,
		scheduler: scheduler,
		reposDir:  reposDir,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/deck", s.handleDeck)
	mux.HandleFunc("GET /api/review/next", s.handleNextReview)
	mux.HandleFunc("GET /api/cards/{fingerprint}", s.handleGetCard)
	mux.HandleFunc("GET /api/cards/{fingerprint}/retrievability", s.handleRetrievability)
	mux.HandleFunc("POST /api/review/{fingerprint}", s.handlePostReview)
	mux.HandleFunc("POST /api/cards", s.handleImport)
	mux.HandleFunc("GET /api/sources", s.handleGetSources)
	mux.HandleFunc("POST /api/sources", s.handlePostSource)
	mux.HandleFunc("DELETE /api/sources/{id}", s.handleDeleteSource)
	mux.HandleFunc("POST /api/sync", s.handleSync)

	s.handler = cors.Default().Handler(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// cardJSON is the wire shape of one stored card.
func cardJSON(cs *storage.CardState, includeAnswer bool) map[string]any {
	out := map[string]any{
		"fingerprint": cs.Fingerprint,
		"question":    cs.Question,
		"context":     cs.Context,
		"scheduling":  cs.Record(),
	}
	if includeAnswer {
		out["answer"] = cs.Answer
	}
	return out
}

// handleDeck reports how many cards are waiting.
func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	due, err := s.db.GetDueCards(s.now())
	if err != nil {
		slog.Error("failed to get due cards", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"dueCount": len(due)})
}

// handleNextReview returns the front of the most overdue card.
func (s *Server) handleNextReview(w http.ResponseWriter, r *http.Request) {
	due, err := s.db.GetDueCards(s.now())
	if err != nil {
		slog.Error("failed to get next due card", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(due) == 0 {
		respondJSON(w, http.StatusOK, map[string]any{"dueCount": 0, "card": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"dueCount": len(due),
		"card":     cardJSON(&due[0], false),
	})
}

// handleGetCard reveals a card including its answer.
func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.loadCard(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cardJSON(cs, true))
}

// handleRetrievability answers a point-in-time recall estimate. A card
// without review history reports known=false rather than a number.
func (s *Server) handleRetrievability(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.loadCard(w, r)
	if !ok {
		return
	}
	card := cs.Scheduling()
	retr, known := s.scheduler.Retrievability(&card, s.now())
	out := map[string]any{"known": known}
	if known {
		out["retrievability"] = retr
	}
	respondJSON(w, http.StatusOK, out)
}

// handlePostReview applies a rating to a card: the engine computes all
// four candidates, the chosen one is persisted with its review log.
func (s *Server) handlePostReview(w http.ResponseWriter, r *http.Request) {
	cs, ok := s.loadCard(w, r)
	if !ok {
		return
	}

	var body struct {
		Rating int `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rating := fsrs.Rating(body.Rating)
	if !rating.IsValid() {
		respondError(w, http.StatusBadRequest, "rating must be 1 (again) to 4 (easy)")
		return
	}

	card := cs.Scheduling()
	now := s.now()
	preview, err := s.scheduler.Schedule(&card, now)
	if err != nil {
		if errors.Is(err, fsrs.ErrTimeReversal) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		slog.Error("failed to schedule card", "fingerprint", cs.Fingerprint, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	chosen := preview[rating]
	cs.SetScheduling(chosen.Card)
	if err := s.db.UpdateCardState(cs); err != nil {
		slog.Error("failed to update card state", "fingerprint", cs.Fingerprint, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := s.db.InsertReviewLog(cs.Fingerprint, chosen.ReviewLog); err != nil {
		slog.Error("failed to insert review log", "fingerprint", cs.Fingerprint, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"card":   cardJSON(cs, true),
		"rating": rating.String(),
	})
}

// handleImport ingests externally-sourced card records. Entries that
// do not look like card data are skipped, invalid ones are reported
// per index, valid ones are stored.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var recs []ingest.Record
	if err := json.NewDecoder(r.Body).Decode(&recs); err != nil {
		respondError(w, http.StatusBadRequest, "request body must be a JSON array of card records")
		return
	}

	sum := reconcile.ImportRecords(s.db, recs)

	failures := make([]map[string]any, 0, len(sum.Failures))
	for _, f := range sum.Failures {
		failures = append(failures, map[string]any{
			"index":   f.Index,
			"message": f.Message,
			"record":  f.Record,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"imported": sum.Imported,
		"skipped":  sum.Skipped,
		"failures": failures,
	})
}

func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		slog.Error("failed to get sources", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]map[string]any, 0, len(sources))
	for _, src := range sources {
		entry := map[string]any{"id": src.ID, "path": src.Path, "type": src.Type}
		if src.LastScanned.Valid {
			entry["lastScanned"] = src.LastScanned.Time.UTC().Format(time.RFC3339)
		}
		out = append(out, entry)
	}
	respondJSON(w, http.StatusOK, map[string]any{"sources": out})
}

func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		respondError(w, http.StatusBadRequest, "path must not be empty")
		return
	}

	sourceType := reconcile.ClassifySource(body.Path)
	id, err := s.db.InsertSource(body.Path, sourceType)
	if err != nil {
		slog.Error("failed to insert source", "path", body.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to add source")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "path": body.Path, "type": sourceType})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid source ID")
		return
	}
	if err := s.db.DeleteSource(id); err != nil {
		slog.Error("failed to delete source", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete source")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// handleSync runs reconciliation in the foreground so the caller sees
// the result.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	sum, err := reconcile.Run(r.Context(), s.db, s.reposDir, s.now())
	if err != nil {
		slog.Error("sync failed", "error", err)
		respondError(w, http.StatusInternalServerError, "sync failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"sources":  sum.Sources,
		"parsed":   sum.Parsed,
		"inserted": sum.Inserted,
		"orphaned": sum.Orphaned,
		"problems": sum.Problems,
	})
}

// loadCard fetches the card named by the request path, handling the
// not-found and error responses.
func (s *Server) loadCard(w http.ResponseWriter, r *http.Request) (*storage.CardState, bool) {
	fp := r.PathValue("fingerprint")
	cs, err := s.db.FindCardByFingerprint(fp)
	if err != nil {
		slog.Error("failed to load card", "fingerprint", fp, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if cs == nil {
		respondError(w, http.StatusNotFound, "card not found")
		return nil, false
	}
	return cs, true
}
