package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// Session is the in-memory state of one player's game. Every read-check-write
// of resolved and index happens under mu.
type Session struct {
	id  string
	rnd Rand

	mu sync.Mutex

	category string
	username string

	awaitingName                bool
	awaitingContinue            bool
	awaitingLeaderboardCategory bool
	ended                       bool

	questions []domain.Question
	index     int
	score     int
	streak    int

	offered     []string
	resolved    bool
	presentedAt time.Time
	cancelTimer context.CancelFunc

	hints      map[domain.HintKind]bool
	trackBonus bool
}

// NewSession returns an idle session for id. The engine builds its own;
// SessionRepository implementations use this to exercise storage in isolation.
func NewSession(id string) *Session {
	return newSession(id, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newSession(id string, rnd Rand) *Session {
	return &Session{
		id:    id,
		rnd:   rnd,
		hints: make(map[domain.HintKind]bool, len(domain.HintKinds)),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Category returns the chosen category.
func (s *Session) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

func (s *Session) phaseLocked() domain.Phase {
	switch {
	case s.ended:
		return domain.PhaseNone
	case s.awaitingLeaderboardCategory:
		return domain.PhaseLeaderboardMenu
	case s.awaitingName:
		return domain.PhaseAwaitingName
	case s.awaitingContinue:
		return domain.PhaseAwaitingContinue
	case s.questions != nil:
		return domain.PhasePlaying
	}
	return domain.PhaseNone
}

// liveLocked reports whether a timer armed for index may still act.
func (s *Session) liveLocked(index int) bool {
	return s.phaseLocked() == domain.PhasePlaying && s.index == index && !s.resolved
}

func (s *Session) currentLocked() domain.Question {
	return s.questions[s.index]
}

func (s *Session) availableHintsLocked() []domain.HintKind {
	if s.index >= len(s.questions) || s.currentLocked().DoubleValue {
		return nil
	}
	hints := make([]domain.HintKind, 0, len(domain.HintKinds))
	for _, kind := range domain.HintKinds {
		if s.hints[kind] {
			hints = append(hints, kind)
		}
	}
	return hints
}

func (s *Session) stopTimerLocked() {
	if s.cancelTimer != nil {
		s.cancelTimer()
		s.cancelTimer = nil
	}
}

// endLocked retires the session; any timer still pending becomes a no-op.
func (s *Session) endLocked() {
	s.ended = true
	s.stopTimerLocked()
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	hints := make(map[domain.HintKind]bool, len(s.hints))
	for k, v := range s.hints {
		hints[k] = v
	}
	return domain.SessionSnapshot{
		ID:       s.id,
		Phase:    s.phaseLocked(),
		Category: s.category,
		Username: s.username,
		Index:    s.index,
		Total:    len(s.questions),
		Score:    s.score,
		Streak:   s.streak,
		Resolved: s.resolved,
		Offered:  append([]string(nil), s.offered...),
		Hints:    hints,
		Tracking: s.trackBonus,
	}
}
