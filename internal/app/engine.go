package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/domain"
)

// Engine contains the game use cases. Every transition on a session is
// serialized by that session's mutex; sessions never lock each other.
type Engine struct {
	sessions SessionRepository
	bank     QuestionBank
	board    LeaderboardStore
	notifier Notifier
	timers   *Scheduler
	cfg      GameConfig
	log      zerolog.Logger
	now      func() time.Time
	newRand  func() Rand
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the clock used to stamp presented questions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand sets the per-session random source factory.
func WithRand(newRand func() Rand) Option {
	return func(e *Engine) { e.newRand = newRand }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func NewEngine(sessions SessionRepository, bank QuestionBank, board LeaderboardStore, notifier Notifier, cfg GameConfig, opts ...Option) *Engine {
	e := &Engine{
		sessions: sessions,
		bank:     bank,
		board:    board,
		notifier: notifier,
		cfg:      cfg.normalized(),
		log:      zerolog.Nop(),
		now:      time.Now,
		newRand: func() Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("component", "engine").Logger()
	e.timers = NewScheduler(e.cfg.AnswerTimeLimit, e.cfg.Checkpoints, e.log)
	return e
}

// Config returns the effective game configuration.
func (e *Engine) Config() GameConfig {
	return e.cfg
}

// Close retires all timers.
func (e *Engine) Close() {
	e.timers.Stop()
}

// Categories lists the playable categories.
func (e *Engine) Categories(ctx context.Context) ([]string, error) {
	return e.bank.Categories(ctx)
}

// Phase reports where the session id currently stands.
func (e *Engine) Phase(sessionID string) domain.Phase {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.PhaseNone
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phaseLocked()
}

// Snapshot returns a copy of the session's progress.
func (e *Engine) Snapshot(sessionID string) (domain.SessionSnapshot, error) {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

// StartSession opens a session for category in awaiting-name mode. A game
// already running under the same id is retired without scoring.
func (e *Engine) StartSession(ctx context.Context, sessionID, category string) error {
	if _, err := e.categoryQuestions(ctx, category); err != nil {
		return err
	}
	e.retire(sessionID)

	s := newSession(sessionID, e.newRand())
	s.category = category
	s.awaitingName = true
	e.sessions.Put(s)

	out := newOutbox(sessionID)
	out.add(domain.EventAwaitingName, domain.AwaitingNamePayload{Category: category})
	e.flush(ctx, out)
	return nil
}

// RegisterName claims a username in the session's category and starts the game.
func (e *Engine) RegisterName(ctx context.Context, sessionID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidName
	}
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	out := newOutbox(sessionID)
	s.mu.Lock()
	if s.phaseLocked() != domain.PhaseAwaitingName {
		s.mu.Unlock()
		return domain.ErrWrongPhase
	}

	taken, err := e.board.IsTaken(ctx, s.category, name)
	if err != nil {
		// Uniqueness cannot be checked; the game goes on.
		e.log.Warn().Err(err).Str("session_id", sessionID).Msg("leaderboard lookup failed during registration")
		out.notice(domain.NoticeWarning, "The leaderboard is unavailable right now; your name could not be checked.")
	} else if taken {
		s.mu.Unlock()
		return domain.ErrNameTaken
	}

	questions, err := e.categoryQuestions(ctx, s.category)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	shuffled := append([]domain.Question(nil), questions...)
	s.rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	s.username = name
	s.questions = shuffled
	s.index = 0
	s.score = 0
	s.streak = 0
	s.resolved = false
	s.trackBonus = false
	for _, kind := range domain.HintKinds {
		s.hints[kind] = true
	}
	s.awaitingName = false

	if e.cfg.isPrize(s.category) {
		s.awaitingContinue = true
		out.add(domain.EventPrizeOffer, domain.PrizeOfferPayload{Category: s.category, Username: name})
	} else {
		e.presentLocked(s, out)
	}
	s.mu.Unlock()

	e.log.Info().Str("session_id", sessionID).Str("category", s.Category()).Str("username", name).Msg("player registered")
	e.flush(ctx, out)
	return nil
}

// Continue presents the first question after a prize offer.
func (e *Engine) Continue(ctx context.Context, sessionID string) error {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	out := newOutbox(sessionID)
	s.mu.Lock()
	if s.phaseLocked() != domain.PhaseAwaitingContinue {
		s.mu.Unlock()
		return domain.ErrWrongPhase
	}
	s.awaitingContinue = false
	e.presentLocked(s, out)
	s.mu.Unlock()

	e.flush(ctx, out)
	return nil
}

// ApplyHint spends a hint on the current question.
func (e *Engine) ApplyHint(ctx context.Context, sessionID string, kind domain.HintKind) error {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	out := newOutbox(sessionID)
	s.mu.Lock()
	if s.phaseLocked() != domain.PhasePlaying {
		s.mu.Unlock()
		return domain.ErrWrongPhase
	}
	if s.resolved {
		s.mu.Unlock()
		return domain.ErrAlreadyResolved
	}
	err := e.applyHintLocked(s, kind, out)
	s.mu.Unlock()

	e.flush(ctx, out)
	return err
}

// SubmitAnswer resolves the current question with text, or routes a hint
// request. receivedAt is when the transport received the message.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID, text string, receivedAt time.Time) (domain.AnswerResult, error) {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrSessionNotFound
	}
	text = strings.TrimSpace(text)

	out := newOutbox(sessionID)
	s.mu.Lock()
	if s.phaseLocked() != domain.PhasePlaying {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrWrongPhase
	}
	if s.resolved {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrAlreadyResolved
	}
	if !containsOption(s.offered, text) {
		kind, isHint := domain.ParseHint(text)
		if !isHint {
			s.mu.Unlock()
			return domain.AnswerResult{}, domain.ErrInvalidOption
		}
		err := e.applyHintLocked(s, kind, out)
		s.mu.Unlock()
		e.flush(ctx, out)
		return domain.AnswerResult{}, err
	}

	result := e.resolveLocked(s, text, receivedAt, false, out)
	done := e.advanceLocked(s, out)
	s.mu.Unlock()

	e.flush(ctx, out)
	if done != nil {
		e.complete(ctx, done)
	}
	return result, nil
}

// Exit ends the session at once. A running game finishes without scoring
// the current question; other phases are simply discarded.
func (e *Engine) Exit(ctx context.Context, sessionID string) error {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.mu.Lock()
	switch s.phaseLocked() {
	case domain.PhasePlaying, domain.PhaseAwaitingContinue:
		done := e.finishLocked(s, true)
		s.mu.Unlock()
		e.complete(ctx, done)
	default:
		s.endLocked()
		e.sessions.DeleteIfCurrent(sessionID, s)
		s.mu.Unlock()
		e.notify(ctx, domain.Event{Type: domain.EventSessionDiscarded, SessionID: sessionID})
	}
	return nil
}

// OpenLeaderboardMenu puts the session id into the leaderboard category menu.
func (e *Engine) OpenLeaderboardMenu(ctx context.Context, sessionID string) error {
	if phase := e.Phase(sessionID); phase == domain.PhasePlaying || phase == domain.PhaseAwaitingContinue {
		return domain.ErrWrongPhase
	}
	categories, err := e.bank.Categories(ctx)
	if err != nil {
		return err
	}
	e.retire(sessionID)

	s := newSession(sessionID, e.newRand())
	s.awaitingLeaderboardCategory = true
	e.sessions.Put(s)

	e.notify(ctx, domain.Event{
		Type:      domain.EventLeaderboardMenu,
		SessionID: sessionID,
		Payload:   domain.LeaderboardMenuPayload{Categories: categories},
	})
	return nil
}

// ShowLeaderboard answers the leaderboard menu with the board for category.
// The menu stays open when the category is unknown or the board cannot be read.
func (e *Engine) ShowLeaderboard(ctx context.Context, sessionID, category string) (domain.Leaderboard, error) {
	if e.Phase(sessionID) != domain.PhaseLeaderboardMenu {
		return domain.Leaderboard{}, domain.ErrWrongPhase
	}
	if _, err := e.categoryQuestions(ctx, category); err != nil {
		return domain.Leaderboard{}, err
	}
	lb, err := e.Ranked(ctx, category)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	e.retire(sessionID)
	e.notify(ctx, domain.Event{Type: domain.EventLeaderboard, SessionID: sessionID, Payload: lb})
	return lb, nil
}

// Ranked reads the leaderboard of category. An empty board is not an error.
func (e *Engine) Ranked(ctx context.Context, category string) (domain.Leaderboard, error) {
	entries, err := e.board.Ranked(ctx, category)
	if err != nil {
		e.log.Warn().Err(err).Str("category", category).Msg("leaderboard read failed")
		return domain.Leaderboard{}, storeError(err)
	}
	return domain.NewLeaderboard(category, entries), nil
}

func (e *Engine) countdown(ctx context.Context, s *Session, index int, remaining time.Duration) bool {
	if !e.isCurrent(s) {
		return false
	}
	s.mu.Lock()
	live := s.liveLocked(index)
	s.mu.Unlock()
	if !live {
		return false
	}
	e.notify(ctx, domain.Event{
		Type:      domain.EventCountdown,
		SessionID: s.id,
		Payload:   domain.CountdownPayload{QuestionIndex: index, Remaining: remaining},
	})
	return true
}

func (e *Engine) expire(ctx context.Context, s *Session, index int) {
	// Advancing cancels the timer's own context; the write-through must outlive it.
	ctx = context.WithoutCancel(ctx)
	if !e.isCurrent(s) {
		return
	}
	out := newOutbox(s.id)
	s.mu.Lock()
	if !s.liveLocked(index) {
		s.mu.Unlock()
		return
	}
	out.add(domain.EventCountdown, domain.CountdownPayload{QuestionIndex: index, Expired: true})
	e.resolveLocked(s, "", time.Time{}, true, out)
	done := e.advanceLocked(s, out)
	s.mu.Unlock()

	e.flush(ctx, out)
	if done != nil {
		e.complete(ctx, done)
	}
}

func (e *Engine) isCurrent(s *Session) bool {
	cur, ok := e.sessions.Get(s.id)
	return ok && cur == s
}

func (e *Engine) presentLocked(s *Session, out *outbox) {
	q := s.currentLocked()
	s.offered = append([]string(nil), q.Options...)
	s.resolved = false
	s.presentedAt = e.now()
	s.stopTimerLocked()
	s.cancelTimer = e.timers.Arm(s, s.index, e)

	out.add(domain.EventQuestion, domain.QuestionPayload{
		Index:       s.index,
		Total:       len(s.questions),
		Text:        q.Text,
		Options:     append([]string(nil), s.offered...),
		DoubleValue: q.DoubleValue,
		Hints:       s.availableHintsLocked(),
	})
	out.add(domain.EventCountdown, domain.CountdownPayload{QuestionIndex: s.index, Remaining: e.cfg.AnswerTimeLimit})
}

func (e *Engine) applyHintLocked(s *Session, kind domain.HintKind, out *outbox) error {
	q := s.currentLocked()
	if q.DoubleValue || !s.hints[kind] {
		return domain.ErrHintUnavailable
	}
	switch kind {
	case domain.HintEvenOdds:
		s.offered = evenOdds(s.rnd, q)
		s.hints[kind] = false
		s.trackBonus = true
		s.streak = 0
		out.add(domain.EventOptionsNarrowed, domain.OptionsNarrowedPayload{
			QuestionIndex: s.index,
			Options:       append([]string(nil), s.offered...),
			Hints:         s.availableHintsLocked(),
		})
	case domain.HintAudiencePoll:
		s.hints[kind] = false
		out.add(domain.EventAudiencePoll, domain.AudiencePollPayload{
			QuestionIndex: s.index,
			Votes:         audiencePoll(s.rnd, q.Options, q.Answer),
			Options:       append([]string(nil), s.offered...),
			Hints:         s.availableHintsLocked(),
		})
	default:
		return domain.ErrHintUnavailable
	}
	return nil
}

// resolveLocked commits the single scoring decision of the current question.
func (e *Engine) resolveLocked(s *Session, answer string, receivedAt time.Time, timedOut bool, out *outbox) domain.AnswerResult {
	s.resolved = true
	q := s.currentLocked()

	outcome := domain.OutcomeTimeout
	if !timedOut && receivedAt.Sub(s.presentedAt) <= e.cfg.AnswerTimeLimit {
		outcome = domain.OutcomeIncorrect
		if answer == q.Answer {
			outcome = domain.OutcomeCorrect
		}
	}

	result := domain.AnswerResult{QuestionIndex: s.index, Outcome: outcome, Correct: q.Answer}
	if outcome == domain.OutcomeCorrect {
		result.Awarded = q.Points()
		s.score += result.Awarded
		s.streak++
		if s.trackBonus && s.streak >= e.cfg.StreakBonus {
			if !s.hints[domain.HintEvenOdds] {
				s.hints[domain.HintEvenOdds] = true
				result.HintRefunded = true
			}
			s.streak = 0
		}
	} else {
		s.streak = 0
	}
	result.TotalScore = s.score
	result.Streak = s.streak

	out.add(domain.EventAnswer, result)
	if result.HintRefunded {
		out.add(domain.EventHintRefunded, domain.HintRefundedPayload{Hint: domain.HintEvenOdds, Streak: e.cfg.StreakBonus})
	}
	return result
}

// advanceLocked moves past a resolved question. It returns the finished game
// when that was the last question.
func (e *Engine) advanceLocked(s *Session, out *outbox) *finishedGame {
	s.stopTimerLocked()
	s.index++
	if s.index >= len(s.questions) {
		return e.finishLocked(s, false)
	}
	e.presentLocked(s, out)
	return nil
}

type finishedGame struct {
	sessionID string
	summary   domain.GameFinishedPayload
}

func (e *Engine) finishLocked(s *Session, exited bool) *finishedGame {
	s.endLocked()
	e.sessions.DeleteIfCurrent(s.id, s)
	return &finishedGame{
		sessionID: s.id,
		summary: domain.GameFinishedPayload{
			Category: s.category,
			Username: s.username,
			Score:    s.score,
			Answered: s.index,
			Total:    len(s.questions),
			Exited:   exited,
		},
	}
}

// complete writes the final score through to the leaderboard and reports it.
// A store failure is reported but never undoes the game.
func (e *Engine) complete(ctx context.Context, done *finishedGame) {
	summary := done.summary
	if err := e.board.RecordScore(ctx, summary.Category, summary.Username, summary.Score); err != nil {
		e.log.Warn().Err(err).
			Str("session_id", done.sessionID).
			Str("category", summary.Category).
			Msg("recording score failed")
	} else {
		summary.Persisted = true
	}

	e.log.Info().
		Str("session_id", done.sessionID).
		Str("category", summary.Category).
		Str("username", summary.Username).
		Int("score", summary.Score).
		Bool("exited", summary.Exited).
		Msg("game finished")
	e.notify(ctx, domain.Event{Type: domain.EventGameFinished, SessionID: done.sessionID, Payload: summary})
}

// retire ends whatever session is stored under sessionID.
func (e *Engine) retire(sessionID string) {
	old, ok := e.sessions.Get(sessionID)
	if !ok {
		return
	}
	old.mu.Lock()
	old.endLocked()
	e.sessions.DeleteIfCurrent(sessionID, old)
	old.mu.Unlock()
}

func (e *Engine) categoryQuestions(ctx context.Context, category string) ([]domain.Question, error) {
	questions, err := e.bank.Questions(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, category)
	}
	return questions, nil
}

func (e *Engine) notify(ctx context.Context, event domain.Event) {
	if err := e.notifier.Notify(ctx, event); err != nil {
		e.log.Warn().Err(err).
			Str("session_id", event.SessionID).
			Str("event", string(event.Type)).
			Msg("notify failed")
	}
}

func (e *Engine) flush(ctx context.Context, out *outbox) {
	for _, event := range out.events {
		e.notify(ctx, event)
	}
}

// outbox collects events under a session lock so they are sent after it is released.
type outbox struct {
	sessionID string
	events    []domain.Event
}

func newOutbox(sessionID string) *outbox {
	return &outbox{sessionID: sessionID}
}

func (o *outbox) add(typ domain.EventType, payload any) {
	o.events = append(o.events, domain.Event{Type: typ, SessionID: o.sessionID, Payload: payload})
}

func (o *outbox) notice(level, message string) {
	o.add(domain.EventNotice, domain.NoticePayload{Level: level, Message: message})
}

func storeError(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func containsOption(options []string, text string) bool {
	for _, opt := range options {
		if opt == text {
			return true
		}
	}
	return false
}
