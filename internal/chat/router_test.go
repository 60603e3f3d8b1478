package chat_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/chat"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Notify(_ context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) drain() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func types(events []domain.Event) []domain.EventType {
	out := make([]domain.EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

type setup struct {
	router *chat.Router
	board  app.LeaderboardStore
	notes  *recorder
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	return newSetupWith(t, memory.NewLeaderboard(), zerolog.Nop())
}

func newSetupWith(t *testing.T, board app.LeaderboardStore, log zerolog.Logger) *setup {
	t.Helper()
	bank := memory.NewQuestionBank(memory.NewStaticQuestionLoader(
		domain.Category{Name: "History", Questions: []domain.Question{
			{Text: "Who was the first Roman emperor?", Options: []string{"Augustus", "Nero"}, Answer: "Augustus"},
		}},
		domain.Category{Name: "Prize", Questions: []domain.Question{
			{Text: "Largest planet?", Options: []string{"Mars", "Jupiter"}, Answer: "Jupiter", DoubleValue: true},
		}},
	), time.Minute)

	s := &setup{board: board, notes: &recorder{}}
	notifier := chat.NewMenuFollower(s.notes, bank.Categories)
	engine := app.NewEngine(memory.NewSessionStore(), bank, s.board, notifier,
		app.GameConfig{PrizeCategories: []string{"Prize"}})
	t.Cleanup(engine.Close)
	s.router = chat.NewRouter(engine, bank, notifier, log)
	return s
}

func (s *setup) say(t *testing.T, text string) []domain.Event {
	t.Helper()
	require.NoError(t, s.router.Handle(context.Background(), chat.Message{SessionID: "chat-1", Text: text}))
	return s.notes.drain()
}

func TestRouterFullGame(t *testing.T) {
	s := newSetup(t)

	events := s.say(t, "/start")
	require.Equal(t, []domain.EventType{domain.EventMenu}, types(events))
	menu := events[0].Payload.(domain.MenuPayload)
	require.Equal(t, []string{"History", "Prize"}, menu.Categories)

	require.Equal(t, []domain.EventType{domain.EventAwaitingName}, types(s.say(t, "history")))
	require.Equal(t, []domain.EventType{domain.EventQuestion, domain.EventCountdown}, types(s.say(t, "Ann")))

	notice := s.say(t, "Caesar")
	require.Equal(t, []domain.EventType{domain.EventNotice}, types(notice))
	require.Equal(t, domain.NoticeReprompt, notice[0].Payload.(domain.NoticePayload).Level)

	require.Equal(t,
		[]domain.EventType{domain.EventAnswer, domain.EventGameFinished, domain.EventMenu},
		types(s.say(t, "Augustus")),
	)

	entries, err := s.board.Ranked(context.Background(), "History")
	require.NoError(t, err)
	require.Equal(t, []domain.LeaderboardEntry{{Username: "Ann", Score: 1}}, entries)
}

func TestRouterNameTakenReprompts(t *testing.T) {
	s := newSetup(t)
	require.NoError(t, s.board.RecordScore(context.Background(), "History", "Bob", 1))

	s.say(t, "History")
	events := s.say(t, "Bob")
	require.Equal(t, []domain.EventType{domain.EventNotice}, types(events))
	require.Equal(t, domain.NoticeReprompt, events[0].Payload.(domain.NoticePayload).Level)

	require.Equal(t, []domain.EventType{domain.EventQuestion, domain.EventCountdown}, types(s.say(t, "Bobby")))
}

func TestRouterPrizeFlow(t *testing.T) {
	s := newSetup(t)

	s.say(t, "Prize")
	require.Equal(t, []domain.EventType{domain.EventPrizeOffer}, types(s.say(t, "Ann")))
	require.Equal(t, []domain.EventType{domain.EventNotice}, types(s.say(t, "🎁 Grand prize")))
	require.Equal(t, []domain.EventType{domain.EventQuestion, domain.EventCountdown}, types(s.say(t, "🚀 Continue")))

	events := s.say(t, "🚪 Exit, gotta run")
	require.Equal(t, []domain.EventType{domain.EventGameFinished, domain.EventMenu}, types(events))
	require.True(t, events[0].Payload.(domain.GameFinishedPayload).Exited)
}

func TestRouterLeaderboardMenu(t *testing.T) {
	s := newSetup(t)
	require.NoError(t, s.board.RecordScore(context.Background(), "History", "Ann", 3))

	require.Equal(t, []domain.EventType{domain.EventLeaderboardMenu}, types(s.say(t, "Leaderboard")))
	require.Equal(t, []domain.EventType{domain.EventNotice}, types(s.say(t, "Astrology")))

	events := s.say(t, "HISTORY")
	require.Equal(t, []domain.EventType{domain.EventLeaderboard, domain.EventMenu}, types(events))
	lb := events[0].Payload.(domain.Leaderboard)
	require.Equal(t, "History", lb.Category)
	require.Len(t, lb.Entries, 1)

	s.say(t, "Leaderboard")
	require.Equal(t, []domain.EventType{domain.EventSessionDiscarded, domain.EventMenu}, types(s.say(t, "Back")))
}

func TestRouterRulesAndRecovery(t *testing.T) {
	s := newSetup(t)

	events := s.say(t, "rules")
	require.Equal(t, []domain.EventType{domain.EventRules}, types(events))
	rules := events[0].Payload.(domain.RulesPayload)
	require.Equal(t, 30*time.Second, rules.AnswerTimeLimit)
	require.Equal(t, 3, rules.StreakBonus)

	events = s.say(t, "Augustus")
	require.Equal(t, []domain.EventType{domain.EventNotice, domain.EventMenu}, types(events))
	require.Equal(t, domain.NoticeRecovered, events[0].Payload.(domain.NoticePayload).Level)

	events = s.say(t, "what?")
	require.Equal(t, []domain.EventType{domain.EventNotice, domain.EventMenu}, types(events))
	require.Equal(t, domain.NoticeReprompt, events[0].Payload.(domain.NoticePayload).Level)
}

type downBoard struct{}

var errDown = errors.New("board down")

func (downBoard) IsTaken(context.Context, string, string) (bool, error) { return false, errDown }
func (downBoard) RecordScore(context.Context, string, string, int) error {
	return errDown
}
func (downBoard) Ranked(context.Context, string) ([]domain.LeaderboardEntry, error) {
	return nil, errDown
}

func TestRouterLeaderboardUnavailableReturnsToMenu(t *testing.T) {
	s := newSetupWith(t, downBoard{}, zerolog.Nop())

	require.Equal(t, []domain.EventType{domain.EventLeaderboardMenu}, types(s.say(t, "Leaderboard")))

	events := s.say(t, "History")
	require.Equal(t,
		[]domain.EventType{domain.EventNotice, domain.EventSessionDiscarded, domain.EventMenu},
		types(events),
	)
	require.Equal(t, domain.NoticeWarning, events[0].Payload.(domain.NoticePayload).Level)

	// back on the main menu, a category starts a game
	require.Equal(t, []domain.EventType{domain.EventAwaitingName}, types(s.say(t, "History")))
}

type failingBank struct{}

func (failingBank) Categories(context.Context) ([]string, error) { return nil, errDown }
func (failingBank) Questions(context.Context, string) ([]domain.Question, error) {
	return nil, errDown
}

func TestRouterReturnsUnexpectedErrorsWithoutLogging(t *testing.T) {
	var buf bytes.Buffer
	notes := &recorder{}
	engine := app.NewEngine(memory.NewSessionStore(), failingBank{}, memory.NewLeaderboard(), notes, app.GameConfig{})
	t.Cleanup(engine.Close)
	router := chat.NewRouter(engine, failingBank{}, notes, zerolog.New(&buf))

	err := router.Handle(context.Background(), chat.Message{SessionID: "chat-1", Text: "History"})
	require.ErrorIs(t, err, errDown)
	require.Empty(t, buf.String(), "the transport logs returned errors")
	require.Equal(t, []domain.EventType{domain.EventNotice}, types(notes.drain()))
}
