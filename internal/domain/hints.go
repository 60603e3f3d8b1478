package domain

import "strings"

var hintLabels = map[string]HintKind{
	"50/50":            HintEvenOdds,
	"fifty-fifty":      HintEvenOdds,
	"audience":         HintAudiencePoll,
	"ask the audience": HintAudiencePoll,
	"audience poll":    HintAudiencePoll,
}

// ParseHint recognizes a hint request typed or tapped by the player.
// Matching ignores case and a leading gift emoji.
func ParseHint(text string) (HintKind, bool) {
	t := strings.TrimSpace(text)
	t = strings.TrimSpace(strings.TrimPrefix(t, "🎁"))
	kind, ok := hintLabels[strings.ToLower(t)]
	return kind, ok
}

// Label is the button text for a hint.
func (k HintKind) Label() string {
	switch k {
	case HintEvenOdds:
		return "🎁 50/50"
	case HintAudiencePoll:
		return "🎁 Ask the audience"
	}
	return string(k)
}
