package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// Button labels shared by every chat transport.
const (
	ActionStart       = "Start"
	ActionLeaderboard = "Leaderboard"
	ActionRules       = "Rules"
	ActionExit        = "Exit"
	ActionBack        = "Back"
	ActionContinue    = "🚀 Continue"
	ActionPrize       = "🎁 Grand prize"
	ActionQuit        = "🚪 Exit, gotta run"
)

// MenuActions are offered after the categories on the main menu.
var MenuActions = []string{ActionLeaderboard, ActionRules, ActionExit}

// Message is one inbound chat message.
type Message struct {
	SessionID  string
	Text       string
	ReceivedAt time.Time
}

// Game is the part of the engine a conversation drives.
type Game interface {
	Phase(sessionID string) domain.Phase
	Categories(ctx context.Context) ([]string, error)
	Config() app.GameConfig
	StartSession(ctx context.Context, sessionID, category string) error
	RegisterName(ctx context.Context, sessionID, name string) error
	Continue(ctx context.Context, sessionID string) error
	SubmitAnswer(ctx context.Context, sessionID, text string, receivedAt time.Time) (domain.AnswerResult, error)
	Exit(ctx context.Context, sessionID string) error
	OpenLeaderboardMenu(ctx context.Context, sessionID string) error
	ShowLeaderboard(ctx context.Context, sessionID, category string) (domain.Leaderboard, error)
}

// Router maps free-text chat messages onto game operations according to
// the phase the session id is in.
type Router struct {
	game     Game
	bank     app.QuestionBank
	notifier app.Notifier
	log      zerolog.Logger
}

func NewRouter(game Game, bank app.QuestionBank, notifier app.Notifier, log zerolog.Logger) *Router {
	return &Router{
		game:     game,
		bank:     bank,
		notifier: notifier,
		log:      log.With().Str("component", "chat").Logger(),
	}
}

// Handle processes one message. Expected player mistakes become notices;
// only unexpected failures are returned, for the transport to log.
func (r *Router) Handle(ctx context.Context, msg Message) error {
	text := strings.TrimSpace(msg.Text)
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}

	var err error
	switch r.game.Phase(msg.SessionID) {
	case domain.PhaseAwaitingName:
		err = r.awaitingName(ctx, msg.SessionID, text)
	case domain.PhaseAwaitingContinue:
		err = r.awaitingContinue(ctx, msg.SessionID, text)
	case domain.PhasePlaying:
		err = r.playing(ctx, msg.SessionID, text, msg.ReceivedAt)
	case domain.PhaseLeaderboardMenu:
		err = r.leaderboardMenu(ctx, msg.SessionID, text)
	default:
		err = r.mainMenu(ctx, msg.SessionID, text)
	}
	if err != nil {
		r.notice(ctx, msg.SessionID, domain.NoticeWarning, "Something went wrong. Please try again.")
	}
	return err
}

func (r *Router) mainMenu(ctx context.Context, sessionID, text string) error {
	word := normalize(text)
	switch word {
	case "/start", "start", "":
		return r.SendMenu(ctx, sessionID)
	case normalize(ActionLeaderboard):
		return r.game.OpenLeaderboardMenu(ctx, sessionID)
	case normalize(ActionRules):
		return r.sendRules(ctx, sessionID)
	case normalize(ActionExit), normalize(ActionQuit):
		r.notice(ctx, sessionID, domain.NoticeInfo, "Thanks for playing! Send /start to play again.")
		return nil
	}

	category, ok, err := r.matchCategory(ctx, text)
	if err != nil {
		return err
	}
	if ok {
		return r.game.StartSession(ctx, sessionID, category)
	}

	if r.looksLikeAnswer(ctx, text) {
		// A message from a game this process no longer knows about.
		r.notice(ctx, sessionID, domain.NoticeRecovered, "Looks like I was just restarted. Let's start a fresh game.")
		return r.SendMenu(ctx, sessionID)
	}
	r.notice(ctx, sessionID, domain.NoticeReprompt, "I didn't understand that. Pick something from the menu.")
	return r.SendMenu(ctx, sessionID)
}

func (r *Router) awaitingName(ctx context.Context, sessionID, text string) error {
	if isExit(text) {
		return r.game.Exit(ctx, sessionID)
	}
	err := r.game.RegisterName(ctx, sessionID, text)
	switch {
	case errors.Is(err, domain.ErrNameTaken):
		r.notice(ctx, sessionID, domain.NoticeReprompt, "That name is already taken in this category. Try another one.")
		return nil
	case errors.Is(err, domain.ErrInvalidName):
		r.notice(ctx, sessionID, domain.NoticeReprompt, "Please send a name to play under.")
		return nil
	}
	return err
}

func (r *Router) awaitingContinue(ctx context.Context, sessionID, text string) error {
	switch normalize(text) {
	case normalize(ActionContinue):
		return r.game.Continue(ctx, sessionID)
	case normalize(ActionPrize):
		r.notice(ctx, sessionID, domain.NoticeInfo, "🏆 The grand prize is a surprise! Good luck!")
		return nil
	}
	if isExit(text) {
		return r.game.Exit(ctx, sessionID)
	}
	r.notice(ctx, sessionID, domain.NoticeReprompt, "Press Continue when you are ready.")
	return nil
}

func (r *Router) playing(ctx context.Context, sessionID, text string, receivedAt time.Time) error {
	if isExit(text) {
		return r.game.Exit(ctx, sessionID)
	}
	_, err := r.game.SubmitAnswer(ctx, sessionID, text, receivedAt)
	switch {
	case err == nil, errors.Is(err, domain.ErrAlreadyResolved):
		return nil
	case errors.Is(err, domain.ErrInvalidOption):
		r.notice(ctx, sessionID, domain.NoticeReprompt, "Choose one of the offered options.")
		return nil
	case errors.Is(err, domain.ErrHintUnavailable):
		r.notice(ctx, sessionID, domain.NoticeReprompt, "That hint is not available for this question.")
		return nil
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrWrongPhase):
		// The game ended between the phase check and the answer.
		return nil
	}
	return err
}

func (r *Router) leaderboardMenu(ctx context.Context, sessionID, text string) error {
	if normalize(text) == normalize(ActionBack) || isExit(text) {
		return r.game.Exit(ctx, sessionID)
	}
	category, ok, err := r.matchCategory(ctx, text)
	if err != nil {
		return err
	}
	if !ok {
		r.notice(ctx, sessionID, domain.NoticeReprompt, "Pick a category from the list.")
		return nil
	}
	_, err = r.game.ShowLeaderboard(ctx, sessionID, category)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		r.notice(ctx, sessionID, domain.NoticeWarning, "The leaderboard is unavailable right now.")
		return r.game.Exit(ctx, sessionID)
	}
	return err
}

// SendMenu emits the main menu.
func (r *Router) SendMenu(ctx context.Context, sessionID string) error {
	categories, err := r.game.Categories(ctx)
	if err != nil {
		return err
	}
	return r.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventMenu,
		SessionID: sessionID,
		Payload:   domain.MenuPayload{Categories: categories, Actions: MenuActions},
	})
}

func (r *Router) sendRules(ctx context.Context, sessionID string) error {
	cfg := r.game.Config()
	return r.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventRules,
		SessionID: sessionID,
		Payload: domain.RulesPayload{
			AnswerTimeLimit: cfg.AnswerTimeLimit,
			Hints:           domain.HintKinds,
			StreakBonus:     cfg.StreakBonus,
		},
	})
}

func (r *Router) notice(ctx context.Context, sessionID, level, message string) {
	err := r.notifier.Notify(ctx, domain.Event{
		Type:      domain.EventNotice,
		SessionID: sessionID,
		Payload:   domain.NoticePayload{Level: level, Message: message},
	})
	if err != nil {
		r.log.Warn().Err(err).Str("session_id", sessionID).Msg("notice not delivered")
	}
}

func (r *Router) matchCategory(ctx context.Context, text string) (string, bool, error) {
	categories, err := r.game.Categories(ctx)
	if err != nil {
		return "", false, err
	}
	for _, c := range categories {
		if strings.EqualFold(c, strings.TrimSpace(text)) {
			return c, true, nil
		}
	}
	return "", false, nil
}

func (r *Router) looksLikeAnswer(ctx context.Context, text string) bool {
	if _, ok := domain.ParseHint(text); ok {
		return true
	}
	categories, err := r.bank.Categories(ctx)
	if err != nil {
		return false
	}
	for _, c := range categories {
		questions, err := r.bank.Questions(ctx, c)
		if err != nil {
			continue
		}
		for _, q := range questions {
			if q.HasOption(text) {
				return true
			}
		}
	}
	return false
}

func isExit(text string) bool {
	word := normalize(text)
	return word == normalize(ActionExit) || word == normalize(ActionQuit)
}

// normalize lowercases text and drops a leading button emoji.
func normalize(text string) string {
	t := strings.TrimSpace(text)
	for _, prefix := range []string{"🎁", "🚀", "🚪"} {
		t = strings.TrimPrefix(t, prefix)
	}
	return strings.ToLower(strings.TrimSpace(t))
}
