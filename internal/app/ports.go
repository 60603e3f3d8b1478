package app

import (
	"context"
	"errors"

	"trivia-quiz-service/internal/domain"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	// DeleteIfCurrent removes the entry only while it still points at session.
	DeleteIfCurrent(sessionID string, session *Session)
}

// QuestionBank serves the ordered question list of each category.
type QuestionBank interface {
	Categories(ctx context.Context) ([]string, error)
	Questions(ctx context.Context, category string) ([]domain.Question, error)
}

// LeaderboardStore keeps the best score per (category, username).
type LeaderboardStore interface {
	IsTaken(ctx context.Context, category, username string) (bool, error)
	// RecordScore max-merges score into the stored best; it never lowers it.
	RecordScore(ctx context.Context, category, username string, score int) error
	// Ranked returns entries by score descending, ties in insertion order.
	Ranked(ctx context.Context, category string) ([]domain.LeaderboardEntry, error)
}

// Notifier delivers events to whichever transport owns the session.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event domain.Event) error

func (f NotifierFunc) Notify(ctx context.Context, event domain.Event) error {
	return f(ctx, event)
}

// Notifiers fans an event out to every transport.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, event domain.Event) error {
	var errs []error
	for _, notifier := range n {
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Rand is the subset of *math/rand.Rand the engine draws from.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}
