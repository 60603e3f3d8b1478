package chat

import (
	"context"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// MenuFollower forwards events and sends the main menu after any event
// that returns the player to it.
type MenuFollower struct {
	next       app.Notifier
	categories func(ctx context.Context) ([]string, error)
}

func NewMenuFollower(next app.Notifier, categories func(ctx context.Context) ([]string, error)) *MenuFollower {
	return &MenuFollower{next: next, categories: categories}
}

func (f *MenuFollower) Notify(ctx context.Context, event domain.Event) error {
	if err := f.next.Notify(ctx, event); err != nil {
		return err
	}
	switch event.Type {
	case domain.EventGameFinished, domain.EventLeaderboard, domain.EventSessionDiscarded:
	default:
		return nil
	}
	categories, err := f.categories(ctx)
	if err != nil {
		return err
	}
	return f.next.Notify(ctx, domain.Event{
		Type:      domain.EventMenu,
		SessionID: event.SessionID,
		Payload:   domain.MenuPayload{Categories: categories, Actions: MenuActions},
	})
}
