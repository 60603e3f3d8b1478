package domain

import "time"

// EventType identifies what an outbound notification carries.
type EventType string

const (
	EventMenu             EventType = "menu"
	EventRules            EventType = "rules"
	EventNotice           EventType = "notice"
	EventAwaitingName     EventType = "awaitingName"
	EventPrizeOffer       EventType = "prizeOffer"
	EventQuestion         EventType = "question"
	EventCountdown        EventType = "countdown"
	EventOptionsNarrowed  EventType = "optionsNarrowed"
	EventAudiencePoll     EventType = "audiencePoll"
	EventAnswer           EventType = "answer"
	EventHintRefunded     EventType = "hintRefunded"
	EventGameFinished     EventType = "gameFinished"
	EventLeaderboardMenu  EventType = "leaderboardMenu"
	EventLeaderboard      EventType = "leaderboard"
	EventSessionDiscarded EventType = "sessionDiscarded"
)

// Event is an abstract notification for the chat transport to render.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Payload   any       `json:"payload,omitempty"`
}

// Notice levels.
const (
	NoticeInfo      = "info"
	NoticeReprompt  = "reprompt"
	NoticeWarning   = "warning"
	NoticeRecovered = "recovered"
)

// NoticePayload carries a plain user-facing message.
type NoticePayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// MenuPayload lists the main menu choices.
type MenuPayload struct {
	Categories []string `json:"categories"`
	Actions    []string `json:"actions"`
}

// RulesPayload describes the game rules for the configured limits.
type RulesPayload struct {
	AnswerTimeLimit time.Duration `json:"answerTimeLimit"`
	Hints           []HintKind    `json:"hints"`
	StreakBonus     int           `json:"streakBonus"`
}

// AwaitingNamePayload asks the player for a username.
type AwaitingNamePayload struct {
	Category string `json:"category"`
}

// PrizeOfferPayload is shown before the first question of a prize category.
type PrizeOfferPayload struct {
	Category string `json:"category"`
	Username string `json:"username"`
}

// QuestionPayload presents a question with its offered options.
type QuestionPayload struct {
	Index       int        `json:"index"`
	Total       int        `json:"total"`
	Text        string     `json:"text"`
	Options     []string   `json:"options"`
	DoubleValue bool       `json:"doubleValue"`
	Hints       []HintKind `json:"hints"` // hints usable on this question
}

// CountdownPayload reports the time left on the current question.
type CountdownPayload struct {
	QuestionIndex int           `json:"questionIndex"`
	Remaining     time.Duration `json:"remaining"`
	Expired       bool          `json:"expired"`
}

// OptionsNarrowedPayload is the result of the even-odds hint.
type OptionsNarrowedPayload struct {
	QuestionIndex int        `json:"questionIndex"`
	Options       []string   `json:"options"`
	Hints         []HintKind `json:"hints"`
}

// AudiencePollPayload is the result of the audience-poll hint.
type AudiencePollPayload struct {
	QuestionIndex int        `json:"questionIndex"`
	Votes         []Vote     `json:"votes"`
	Options       []string   `json:"options"`
	Hints         []HintKind `json:"hints"`
}

// HintRefundedPayload announces a hint returned by the streak bonus.
type HintRefundedPayload struct {
	Hint   HintKind `json:"hint"`
	Streak int      `json:"streak"`
}

// GameFinishedPayload summarizes a finished or abandoned game.
type GameFinishedPayload struct {
	Category  string `json:"category"`
	Username  string `json:"username"`
	Score     int    `json:"score"`
	Answered  int    `json:"answered"`
	Total     int    `json:"total"`
	Exited    bool   `json:"exited"`
	Persisted bool   `json:"persisted"`
}

// LeaderboardMenuPayload asks which category's board to show.
type LeaderboardMenuPayload struct {
	Categories []string `json:"categories"`
}
