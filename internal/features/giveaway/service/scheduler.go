package service

import (
	"sync"
	"time"

	"exhub-store-bot/internal/common/logger"
	"exhub-store-bot/internal/features/giveaway/models"
)

// GraceDelay is how long an overdue giveaway waits before ending. At
// restart many records may be overdue at once; the grace spreads the
// work instead of firing everything in the same instant.
const GraceDelay = 5 * time.Second

// Scheduler owns one pending timer per active giveaway. It never owns
// giveaway data; the timer handle is derived state keyed by the same id
// and revocable at any time.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	fire   func(giveawayID string)
	grace  time.Duration
}

// NewScheduler creates a scheduler that invokes fire with the giveaway
// id when a timer elapses. fire runs on a timer goroutine and must hand
// off to the engine's end transition.
func NewScheduler(fire func(giveawayID string)) *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		fire:   fire,
		grace:  GraceDelay,
	}
}

// Arm schedules the end transition for a non-ended record. An already
// due record fires after the grace delay rather than instantly. Arming
// an id twice replaces the previous timer.
func (s *Scheduler) Arm(rec *models.Giveaway) {
	if rec.Ended {
		return
	}

	delay := time.Until(rec.EndsAt())
	if delay <= 0 {
		delay = s.grace
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[rec.ID]; ok {
		prev.Stop()
	}

	id := rec.ID
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		s.fire(id)
	})

	logger.Debug().Str("giveaway_id", id).Dur("delay", delay).Msg("Armed giveaway timer")
}

// Cancel revokes the outstanding timer for id. Cancelling an id with no
// timer is a no-op.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// StopAll cancels every outstanding timer. Used on shutdown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending reports whether a timer is outstanding for id.
func (s *Scheduler) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}
