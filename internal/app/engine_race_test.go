package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trivia-quiz-service/internal/domain"
)

type mapSessions struct {
	mu sync.Mutex
	m  map[string]*Session
}

func (s *mapSessions) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[session.ID()] = session
}

func (s *mapSessions) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.m[id]
	return session, ok
}

func (s *mapSessions) DeleteIfCurrent(id string, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m[id] == session {
		delete(s.m, id)
	}
}

type oneQuestionBank struct{}

func (oneQuestionBank) Categories(context.Context) ([]string, error) { return []string{"History"}, nil }

func (oneQuestionBank) Questions(context.Context, string) ([]domain.Question, error) {
	return []domain.Question{
		{Text: "Who was the first Roman emperor?", Options: []string{"Augustus", "Nero"}, Answer: "Augustus"},
	}, nil
}

type nopBoard struct{}

func (nopBoard) IsTaken(context.Context, string, string) (bool, error)  { return false, nil }
func (nopBoard) RecordScore(context.Context, string, string, int) error { return nil }
func (nopBoard) Ranked(context.Context, string) ([]domain.LeaderboardEntry, error) {
	return nil, nil
}

// An answer racing the expiry must produce exactly one outcome per question.
func TestExpireAndAnswerResolveOnce(t *testing.T) {
	ctx := context.Background()
	var answers sync.Map
	notifier := NotifierFunc(func(_ context.Context, ev domain.Event) error {
		if ev.Type == domain.EventAnswer {
			n, _ := answers.LoadOrStore(ev.SessionID, new(atomic.Int32))
			n.(*atomic.Int32).Add(1)
		}
		return nil
	})
	engine := NewEngine(&mapSessions{m: make(map[string]*Session)}, oneQuestionBank{}, nopBoard{}, notifier, GameConfig{AnswerTimeLimit: time.Minute})
	defer engine.Close()

	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("chat-%d", i)
		if err := engine.StartSession(ctx, id, "History"); err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := engine.RegisterName(ctx, id, "Ann"); err != nil {
			t.Fatalf("register: %v", err)
		}
		session, _ := engine.sessions.Get(id)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			engine.expire(ctx, session, 0)
		}()
		go func() {
			defer wg.Done()
			_, _ = engine.SubmitAnswer(ctx, id, "Augustus", time.Now())
		}()
		wg.Wait()

		n, ok := answers.Load(id)
		if !ok || n.(*atomic.Int32).Load() != 1 {
			t.Fatalf("%s: expected exactly one outcome", id)
		}
		if phase := engine.Phase(id); phase != domain.PhaseNone {
			t.Fatalf("%s: expected finished game, got %s", id, phase)
		}
	}
}

func TestExpireIgnoresReplacedSession(t *testing.T) {
	ctx := context.Background()
	var answers atomic.Int32
	notifier := NotifierFunc(func(_ context.Context, ev domain.Event) error {
		if ev.Type == domain.EventAnswer {
			answers.Add(1)
		}
		return nil
	})
	engine := NewEngine(&mapSessions{m: make(map[string]*Session)}, oneQuestionBank{}, nopBoard{}, notifier, GameConfig{AnswerTimeLimit: time.Minute})
	defer engine.Close()

	if err := engine.StartSession(ctx, "chat-1", "History"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := engine.RegisterName(ctx, "chat-1", "Ann"); err != nil {
		t.Fatalf("register: %v", err)
	}
	stale, _ := engine.sessions.Get("chat-1")
	if err := engine.StartSession(ctx, "chat-1", "History"); err != nil {
		t.Fatalf("restart: %v", err)
	}

	engine.expire(ctx, stale, 0)
	if answers.Load() != 0 {
		t.Fatalf("stale timer must not score")
	}
	if engine.Phase("chat-1") != domain.PhaseAwaitingName {
		t.Fatalf("replacement session disturbed")
	}
}
