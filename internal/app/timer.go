package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// timerTarget receives the countdown of one question.
type timerTarget interface {
	// countdown reports whether the question is still live.
	countdown(ctx context.Context, session *Session, index int, remaining time.Duration) bool
	expire(ctx context.Context, session *Session, index int)
}

// Scheduler runs one countdown per presented question. A countdown retires
// as soon as its question is no longer live, either through its cancel func
// or through the target's own state check.
type Scheduler struct {
	limit       time.Duration
	checkpoints []time.Duration
	log         zerolog.Logger

	ctx  context.Context
	stop context.CancelFunc

	// mu orders Arm's wg.Add against Stop's wg.Wait.
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewScheduler expects checkpoints sorted descending and below limit.
func NewScheduler(limit time.Duration, checkpoints []time.Duration, log zerolog.Logger) *Scheduler {
	ctx, stop := context.WithCancel(context.Background())
	return &Scheduler{
		limit:       limit,
		checkpoints: checkpoints,
		log:         log.With().Str("component", "timer").Logger(),
		ctx:         ctx,
		stop:        stop,
	}
}

// Arm starts the countdown for question index of session.
func (s *Scheduler) Arm(session *Session, index int, target timerTarget) context.CancelFunc {
	ctx, cancel := context.WithCancel(s.ctx)
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return cancel
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx, session, index, target)
	}()
	return cancel
}

func (s *Scheduler) run(ctx context.Context, session *Session, index int, target timerTarget) {
	deadline := time.Now().Add(s.limit)
	for _, remaining := range s.checkpoints {
		if !sleepUntil(ctx, deadline.Add(-remaining)) {
			s.retired(session, index, "canceled")
			return
		}
		if !target.countdown(ctx, session, index, remaining) {
			s.retired(session, index, "moved on")
			return
		}
	}
	if !sleepUntil(ctx, deadline) {
		s.retired(session, index, "canceled")
		return
	}
	target.expire(ctx, session, index)
}

func (s *Scheduler) retired(session *Session, index int, reason string) {
	s.log.Debug().
		Str("session_id", session.ID()).
		Int("index", index).
		Str("reason", reason).
		Msg("timer retired")
}

// Stop retires every pending countdown and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.stop()
	s.mu.Unlock()
	s.wg.Wait()
}

func sleepUntil(ctx context.Context, t time.Time) bool {
	timer := time.NewTimer(time.Until(t))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
