package fsrs

import (
	"fmt"
	"sync"
	"time"
)

// Scheduler computes review schedules from a card's memory state. It
// is a pure calculator: the only state it owns is its parameter set,
// which is guarded by a read-mostly lock so UpdateParams may be called
// while reviews are being scheduled from other goroutines.
type Scheduler struct {
	mu     sync.RWMutex
	params Params
}

// Config configures a new Scheduler. Zero-value fields fall back to
// DefaultParams: retention 0.9, maximum interval 36500 days, the
// default weight vector.
type Config struct {
	RequestRetention float64
	MaximumInterval  float64
	W                []float64 // must hold exactly WeightCount entries when non-nil
}

// NewScheduler creates a Scheduler from cfg. Out-of-range values are rejected;
// a weight slice of the wrong length is a configuration error, never
// reinterpreted.
func NewScheduler(cfg Config) (*Scheduler, error) {
	p := DefaultParams()
	if cfg.RequestRetention != 0 {
		p.RequestRetention = cfg.RequestRetention
	}
	if cfg.MaximumInterval != 0 {
		p.MaximumInterval = cfg.MaximumInterval
	}
	if cfg.W != nil {
		if len(cfg.W) != WeightCount {
			return nil, fmt.Errorf("fsrs: weight vector must have exactly %d entries, got %d", WeightCount, len(cfg.W))
		}
		copy(p.W[:], cfg.W)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Scheduler{params: p}, nil
}

// SchedulingInfo pairs one candidate next-state with its audit record.
type SchedulingInfo struct {
	Card      Card
	ReviewLog ReviewLog
}

// Preview holds the four candidate outcomes of one review, keyed by
// rating. The caller applies the entry for the rating the learner
// actually chose and persists it; the scheduler keeps nothing.
type Preview map[Rating]SchedulingInfo

// Schedule computes, for every rating, the card that would result from
// reviewing card at now, together with a ReviewLog snapshot of the
// pre-review card. The input card is never mutated.
//
// It fails with ErrNoCard for a nil card and ErrTimeReversal when now
// precedes the card's last review; scheduling is never asked to move
// time backward.
func (s *Scheduler) Schedule(card *Card, now time.Time) (Preview, error) {
	if card == nil {
		return nil, ErrNoCard
	}
	if card.LastReview != nil && now.Before(*card.LastReview) {
		return nil, fmt.Errorf("%w: now %s, last review %s",
			ErrTimeReversal, now.Format(time.RFC3339), card.LastReview.Format(time.RFC3339))
	}

	s.mu.RLock()
	p := s.params
	s.mu.RUnlock()

	elapsed := 0.0
	if card.LastReview != nil {
		elapsed = DaysBetween(*card.LastReview, now)
	}

	preview := make(Preview, len(Ratings))
	for _, r := range Ratings {
		preview[r] = SchedulingInfo{
			Card:      s.next(card, r, now, elapsed, p),
			ReviewLog: snapshot(card, r, now, elapsed),
		}
	}
	return preview, nil
}

// next produces the card that results from rating the given card at
// now. reps increments and lastReview moves to now on every
// transition.
func (s *Scheduler) next(card *Card, r Rating, now time.Time, elapsed float64, p Params) Card {
	c := card.clone()
	c.ElapsedDays = elapsed
	c.Reps++
	reviewed := now
	c.LastReview = &reviewed

	var interval float64
	switch card.State {
	case New:
		c.Stability = initStability(p.W, r)
		c.Difficulty = initDifficulty(p.W, r)
		if r == Again {
			// Immediate relearning: the first failure always comes
			// back in one day, not at the curve-derived interval.
			c.State = Learning
			interval = 1
		} else {
			c.State = Review
			interval = nextInterval(c.Stability, p.RequestRetention, p.MaximumInterval)
		}
	default:
		retr := forgettingCurve(elapsed, card.Stability)
		c.Difficulty = nextDifficulty(p.W, card.Difficulty, r)
		if r == Again {
			c.Stability = forgetStability(p.W, card.Difficulty, card.Stability, retr)
			c.State = Relearning
			c.Lapses++
		} else {
			c.Stability = recallStability(p.W, card.Difficulty, card.Stability, retr, r)
			c.State = Review
		}
		interval = nextInterval(c.Stability, p.RequestRetention, p.MaximumInterval)
	}

	c.ScheduledDays = interval
	c.Due = now.Add(time.Duration(interval) * 24 * time.Hour)
	return c
}

// snapshot records what the card looked like right before the
// decision, not the outcome.
func snapshot(card *Card, r Rating, now time.Time, elapsed float64) ReviewLog {
	return ReviewLog{
		Rating:          r,
		State:           card.State,
		Due:             card.Due,
		Stability:       card.Stability,
		Difficulty:      card.Difficulty,
		ElapsedDays:     elapsed,
		LastElapsedDays: card.ElapsedDays,
		ScheduledDays:   card.ScheduledDays,
		Review:          now,
	}
}

// Retrievability estimates the card's current recall probability at
// now. The second return is false when no estimate exists yet: a nil
// card, a New card, or one without a recorded last review.
func (s *Scheduler) Retrievability(card *Card, now time.Time) (float64, bool) {
	if card == nil || card.State == New || card.LastReview == nil {
		return 0, false
	}
	elapsed := DaysBetween(*card.LastReview, now)
	return forgettingCurve(elapsed, card.Stability), true
}

// Params returns a copy of the live parameter set. Mutating the
// returned value never affects the scheduler.
func (s *Scheduler) Params() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// UpdateParams merges u into the live parameters, replacing only the
// fields u carries. Invalid merged values are rejected and the live
// parameters are left untouched.
func (s *Scheduler) UpdateParams(u ParamsUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.params
	if u.RequestRetention != nil {
		p.RequestRetention = *u.RequestRetention
	}
	if u.MaximumInterval != nil {
		p.MaximumInterval = *u.MaximumInterval
	}
	if u.W != nil {
		p.W = *u.W
	}
	if err := p.validate(); err != nil {
		return err
	}
	s.params = p
	return nil
}
