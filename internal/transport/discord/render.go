package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"trivia-quiz-service/internal/chat"
	"trivia-quiz-service/internal/domain"
)

const (
	colorQuestion    = 0x00ff00
	colorLeaderboard = 0xffd700
)

var medals = []string{"🥇", "🥈", "🥉"}

// Render turns an engine event into a Discord message. It returns nil for
// events that produce no message of their own.
func Render(event domain.Event) *discordgo.MessageSend {
	switch p := event.Payload.(type) {
	case domain.MenuPayload:
		return text("Pick a category to play or an action:\n" + bullets(append(append([]string(nil), p.Categories...), p.Actions...)))
	case domain.RulesPayload:
		return text(rules(p))
	case domain.NoticePayload:
		if p.Level == domain.NoticeWarning || p.Level == domain.NoticeRecovered {
			return text("❗ " + p.Message)
		}
		return text(p.Message)
	case domain.AwaitingNamePayload:
		return text(fmt.Sprintf("Before we start, tell me your name for the %s category:", p.Category))
	case domain.PrizeOfferPayload:
		return text(fmt.Sprintf("%s, you are playing for the grand prize! Want to know more?\n%s",
			p.Username, bullets([]string{chat.ActionPrize, chat.ActionContinue})))
	case domain.QuestionPayload:
		return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{questionEmbed(p)}}
	case domain.OptionsNarrowedPayload:
		return text("Two options left:\n" + bullets(p.Options) + hintLine(p.Hints))
	case domain.AudiencePollPayload:
		lines := make([]string, 0, len(p.Votes))
		for _, v := range p.Votes {
			lines = append(lines, fmt.Sprintf("%s: %d%%", v.Option, v.Percent))
		}
		return text("The audience voted:\n\n" + strings.Join(lines, "\n") + hintLine(p.Hints))
	case domain.AnswerResult:
		return text(answer(p))
	case domain.HintRefundedPayload:
		return text(fmt.Sprintf("🎉 Bonus! You got the %s hint back for %d correct answers in a row.", p.Hint.Label(), p.Streak))
	case domain.GameFinishedPayload:
		msg := fmt.Sprintf("Game over! You scored %d %s in the %s category.", p.Score, points(p.Score), p.Category)
		if !p.Persisted {
			msg += " Your score could not be saved this time."
		}
		return text(msg)
	case domain.LeaderboardMenuPayload:
		return text("Pick a category to see its leaderboard:\n" + bullets(append(append([]string(nil), p.Categories...), chat.ActionBack)))
	case domain.Leaderboard:
		return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{leaderboardEmbed(p)}}
	}
	return nil
}

// CountdownText is the content of the per-question countdown message.
func CountdownText(p domain.CountdownPayload) string {
	if p.Expired {
		return "⏰ Time is up!"
	}
	return fmt.Sprintf("⏳ %d seconds left...", int(p.Remaining.Round(time.Second)/time.Second))
}

func questionEmbed(p domain.QuestionPayload) *discordgo.MessageEmbed {
	description := "**" + p.Text + "**"
	if p.DoubleValue {
		description = "‼️ A hard question worth 2 points. Hints are disabled.\n\n" + description
	}
	footer := chat.ActionQuit
	if labels := hintLabels(p.Hints); labels != "" {
		footer = labels + " · " + footer
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Question %d of %d", p.Index+1, p.Total),
		Description: description + "\n\n" + bullets(p.Options),
		Color:       colorQuestion,
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	}
}

func leaderboardEmbed(lb domain.Leaderboard) *discordgo.MessageEmbed {
	body := "The leaderboard is empty."
	if len(lb.Entries) > 0 {
		lines := make([]string, 0, len(lb.Entries))
		for _, e := range lb.Entries {
			place := fmt.Sprintf("%d.", e.Rank)
			if e.Medal {
				place = medals[e.Rank-1]
			}
			lines = append(lines, fmt.Sprintf("%s %s - %d %s", place, e.Username, e.Score, points(e.Score)))
		}
		body = strings.Join(lines, "\n")
	}
	return &discordgo.MessageEmbed{
		Title:       "Leaderboard for " + lb.Category,
		Description: body,
		Color:       colorLeaderboard,
	}
}

func answer(p domain.AnswerResult) string {
	switch p.Outcome {
	case domain.OutcomeCorrect:
		return fmt.Sprintf("✅ Correct! %s (+%d %s)", p.Correct, p.Awarded, points(p.Awarded))
	case domain.OutcomeTimeout:
		return "⏰ Time is up! The correct answer was: " + p.Correct
	}
	return "❌ Wrong! The correct answer: " + p.Correct
}

func rules(p domain.RulesPayload) string {
	return fmt.Sprintf("📜 Rules:\n\n"+
		"1️⃣ You have %d seconds for each question. No answer in time counts as wrong.\n"+
		"2️⃣ Two hints are available once per game:\n"+
		"   %s removes all but two options.\n"+
		"   %s shows how the audience voted.\n"+
		"3️⃣ After using 50/50, %d correct answers in a row give it back.\n"+
		"Hard questions are worth 2 points and allow no hints.",
		int(p.AnswerTimeLimit/time.Second), domain.HintEvenOdds.Label(), domain.HintAudiencePoll.Label(), p.StreakBonus)
}

func hintLabels(hints []domain.HintKind) string {
	labels := make([]string, 0, len(hints))
	for _, h := range hints {
		labels = append(labels, h.Label())
	}
	return strings.Join(labels, " · ")
}

func hintLine(hints []domain.HintKind) string {
	if labels := hintLabels(hints); labels != "" {
		return "\n\nHints left: " + labels
	}
	return ""
}

func bullets(items []string) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "• "+it)
	}
	return strings.Join(lines, "\n")
}

func points(n int) string {
	if n == 1 {
		return "point"
	}
	return "points"
}

func text(content string) *discordgo.MessageSend {
	return &discordgo.MessageSend{Content: content}
}
