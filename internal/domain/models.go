package domain

// Question is one multiple-choice record from the question bank.
type Question struct {
	Text        string   `json:"text" yaml:"text" validate:"required"`
	Options     []string `json:"options" yaml:"options" validate:"min=2,max=10,unique,dive,required"`
	Answer      string   `json:"answer" yaml:"answer" validate:"required"`
	DoubleValue bool     `json:"doubleValue" yaml:"double_value"` // worth 2 points, hints disabled
}

// Points returns the score awarded for a correct answer.
func (q Question) Points() int {
	if q.DoubleValue {
		return 2
	}
	return 1
}

// HasOption reports whether text is one of the question's options.
func (q Question) HasOption(text string) bool {
	return containsOption(q.Options, text)
}

func containsOption(options []string, text string) bool {
	for _, opt := range options {
		if opt == text {
			return true
		}
	}
	return false
}

// HintKind names one of the two one-shot hints.
type HintKind string

const (
	HintEvenOdds     HintKind = "50/50"
	HintAudiencePoll HintKind = "audience"
)

// HintKinds lists hints in display order.
var HintKinds = []HintKind{HintEvenOdds, HintAudiencePoll}

// Outcome is the scoring decision committed for a question.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeTimeout   Outcome = "timeout"
)

// Phase is the coarse conversational state of a session id.
type Phase string

const (
	PhaseNone             Phase = "none"
	PhaseLeaderboardMenu  Phase = "leaderboard_menu"
	PhaseAwaitingName     Phase = "awaiting_name"
	PhaseAwaitingContinue Phase = "awaiting_continue"
	PhasePlaying          Phase = "playing"
)

// AnswerResult summarizes the scoring of a single question.
type AnswerResult struct {
	QuestionIndex int     `json:"questionIndex"`
	Outcome       Outcome `json:"outcome"`
	Correct       string  `json:"correctAnswer"`
	Awarded       int     `json:"awarded"`
	TotalScore    int     `json:"totalScore"`
	Streak        int     `json:"streak"`
	HintRefunded  bool    `json:"hintRefunded,omitempty"`
}

// Vote is one line of an audience poll.
type Vote struct {
	Option  string `json:"option"`
	Percent int    `json:"percent"`
}

// LeaderboardEntry is the best score a username reached in a category.
type LeaderboardEntry struct {
	Username string `json:"username" yaml:"username"`
	Score    int    `json:"score" yaml:"score"`
}

// RankedEntry is a leaderboard row prepared for display.
type RankedEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username" yaml:"username"`
	Score    int    `json:"score"`
	Medal    bool   `json:"medal"` // top three
}

// Leaderboard captures the ordered board for a category.
type Leaderboard struct {
	Category string        `json:"category"`
	Entries  []RankedEntry `json:"entries"`
}

// NewLeaderboard ranks entries that are already sorted best-first.
func NewLeaderboard(category string, entries []LeaderboardEntry) Leaderboard {
	ranked := make([]RankedEntry, 0, len(entries))
	for i, e := range entries {
		ranked = append(ranked, RankedEntry{
			Rank:     i + 1,
			Username: e.Username,
			Score:    e.Score,
			Medal:    i < 3,
		})
	}
	return Leaderboard{Category: category, Entries: ranked}
}

// SessionSnapshot is a read-only copy of a session's progress.
type SessionSnapshot struct {
	ID       string            `json:"id"`
	Phase    Phase             `json:"phase"`
	Category string            `json:"category"`
	Username string            `json:"username"`
	Index    int               `json:"index"`
	Total    int               `json:"total"`
	Score    int               `json:"score"`
	Streak   int               `json:"streak"`
	Resolved bool              `json:"resolved"`
	Offered  []string          `json:"offered"`
	Hints    map[HintKind]bool `json:"hints"`
	Tracking bool              `json:"bonusTracking"`
}

// Category is a named, ordered question list.
type Category struct {
	Name      string     `json:"name" yaml:"name" validate:"required"`
	Questions []Question `json:"questions" yaml:"questions"`
}
