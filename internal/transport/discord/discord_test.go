package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/domain"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []*discordgo.MessageSend
	edits []string
	next  int
	fail  bool
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("discord down")
	}
	f.next++
	f.sent = append(f.sent, data)
	return &discordgo.Message{ID: fmt.Sprintf("m%d", f.next), ChannelID: channelID}, nil
}

func (f *fakeSender) ChannelMessageEdit(_, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, messageID+"="+content)
	return &discordgo.Message{ID: messageID}, nil
}

func TestSessionIDRoundTrip(t *testing.T) {
	channel, ok := channelOf(SessionID("c1", "u1"))
	require.True(t, ok)
	require.Equal(t, "c1", channel)

	_, ok = channelOf("ws:1234")
	require.False(t, ok)
}

func TestNotifierEditsCountdownInPlace(t *testing.T) {
	out := &fakeSender{}
	n := NewNotifier(out, zerolog.Nop())
	ctx := context.Background()
	id := SessionID("c1", "u1")

	countdown := func(index int, remaining time.Duration, expired bool) {
		require.NoError(t, n.Notify(ctx, domain.Event{
			Type:      domain.EventCountdown,
			SessionID: id,
			Payload:   domain.CountdownPayload{QuestionIndex: index, Remaining: remaining, Expired: expired},
		}))
	}
	countdown(0, 30*time.Second, false)
	countdown(0, 20*time.Second, false)
	countdown(0, 0, true)
	countdown(1, 30*time.Second, false)

	require.Len(t, out.sent, 2)
	require.Equal(t, "⏳ 30 seconds left...", out.sent[0].Content)
	require.Equal(t, []string{"m1=⏳ 20 seconds left...", "m1=⏰ Time is up!"}, out.edits)
}

func TestNotifierDropsCountdownOfReplacedQuestion(t *testing.T) {
	out := &fakeSender{}
	n := NewNotifier(out, zerolog.Nop())
	ctx := context.Background()
	id := SessionID("c1", "u1")

	notify := func(typ domain.EventType, payload any) {
		require.NoError(t, n.Notify(ctx, domain.Event{Type: typ, SessionID: id, Payload: payload}))
	}
	notify(domain.EventQuestion, domain.QuestionPayload{Index: 0, Total: 2, Text: "Q1", Options: []string{"a", "b"}})
	notify(domain.EventCountdown, domain.CountdownPayload{QuestionIndex: 0, Remaining: 30 * time.Second})
	notify(domain.EventQuestion, domain.QuestionPayload{Index: 1, Total: 2, Text: "Q2", Options: []string{"a", "b"}})
	// arrives late, after the next question is on screen
	notify(domain.EventCountdown, domain.CountdownPayload{QuestionIndex: 0, Remaining: 20 * time.Second})
	notify(domain.EventCountdown, domain.CountdownPayload{QuestionIndex: 1, Remaining: 30 * time.Second})
	notify(domain.EventCountdown, domain.CountdownPayload{QuestionIndex: 1, Remaining: 20 * time.Second})

	require.Len(t, out.sent, 4, "two questions and one countdown message each")
	require.Equal(t, "⏳ 30 seconds left...", out.sent[1].Content)
	require.Equal(t, "⏳ 30 seconds left...", out.sent[3].Content)
	require.Equal(t, []string{"m4=⏳ 20 seconds left..."}, out.edits)
}

func TestNotifierIgnoresOtherTransports(t *testing.T) {
	out := &fakeSender{}
	n := NewNotifier(out, zerolog.Nop())
	require.NoError(t, n.Notify(context.Background(), domain.Event{
		Type:      domain.EventNotice,
		SessionID: "ws:abc",
		Payload:   domain.NoticePayload{Message: "hi"},
	}))
	require.Empty(t, out.sent)
}

func TestNotifierReportsSendFailure(t *testing.T) {
	out := &fakeSender{fail: true}
	n := NewNotifier(out, zerolog.Nop())
	err := n.Notify(context.Background(), domain.Event{
		Type:      domain.EventNotice,
		SessionID: SessionID("c1", "u1"),
		Payload:   domain.NoticePayload{Message: "hi"},
	})
	require.Error(t, err)
}

func TestRenderLeaderboard(t *testing.T) {
	lb := domain.NewLeaderboard("History", []domain.LeaderboardEntry{
		{Username: "Ann", Score: 3}, {Username: "Bob", Score: 2}, {Username: "Cid", Score: 1}, {Username: "Dee", Score: 1},
	})
	msg := Render(domain.Event{Type: domain.EventLeaderboard, Payload: lb})
	require.Len(t, msg.Embeds, 1)
	lines := strings.Split(msg.Embeds[0].Description, "\n")
	require.Equal(t, []string{
		"🥇 Ann - 3 points",
		"🥈 Bob - 2 points",
		"🥉 Cid - 1 point",
		"4. Dee - 1 point",
	}, lines)

	empty := Render(domain.Event{Type: domain.EventLeaderboard, Payload: domain.NewLeaderboard("Science", nil)})
	require.Equal(t, "The leaderboard is empty.", empty.Embeds[0].Description)
}

func TestRenderQuestionAndAnswers(t *testing.T) {
	msg := Render(domain.Event{Type: domain.EventQuestion, Payload: domain.QuestionPayload{
		Index: 1, Total: 5, Text: "Largest planet?", Options: []string{"Mars", "Jupiter"}, DoubleValue: true,
	}})
	require.Equal(t, "Question 2 of 5", msg.Embeds[0].Title)
	require.Contains(t, msg.Embeds[0].Description, "worth 2 points")
	require.Contains(t, msg.Embeds[0].Description, "• Jupiter")

	require.Equal(t, "✅ Correct! Jupiter (+2 points)",
		Render(domain.Event{Payload: domain.AnswerResult{Outcome: domain.OutcomeCorrect, Correct: "Jupiter", Awarded: 2}}).Content)
	require.Equal(t, "⏰ Time is up! The correct answer was: Jupiter",
		Render(domain.Event{Payload: domain.AnswerResult{Outcome: domain.OutcomeTimeout, Correct: "Jupiter"}}).Content)
	require.Nil(t, Render(domain.Event{Type: domain.EventSessionDiscarded}))
}

func TestBotAccept(t *testing.T) {
	b := &Bot{allowed: map[string]struct{}{"c1": {}}}

	text, ok := b.accept("c1", "g1", "!trivia History")
	require.True(t, ok)
	require.Equal(t, "History", text)

	text, ok = b.accept("c1", "g1", "!trivia")
	require.True(t, ok)
	require.Equal(t, "/start", text)

	_, ok = b.accept("c1", "g1", "hello there")
	require.False(t, ok)

	_, ok = b.accept("c2", "g1", "!trivia History")
	require.False(t, ok)

	open := &Bot{allowed: map[string]struct{}{}}
	text, ok = open.accept("dm", "", "Augustus")
	require.True(t, ok)
	require.Equal(t, "Augustus", text)
}
