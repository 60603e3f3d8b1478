package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/domain"
)

const sessionPrefix = "discord:"

// SessionID keys a conversation by channel and author, so several players
// can share a guild channel.
func SessionID(channelID, userID string) string {
	return sessionPrefix + channelID + ":" + userID
}

func channelOf(sessionID string) (string, bool) {
	rest, ok := strings.CutPrefix(sessionID, sessionPrefix)
	if !ok {
		return "", false
	}
	channelID, _, ok := strings.Cut(rest, ":")
	return channelID, ok && channelID != ""
}

// sender is the slice of *discordgo.Session the notifier writes through.
type sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier delivers engine events for Discord sessions. Each question gets
// one countdown message that later checkpoints edit in place.
type Notifier struct {
	out sender
	log zerolog.Logger

	mu         sync.Mutex
	countdowns map[string]countdownMessage
}

type countdownMessage struct {
	index     int
	messageID string
}

func NewNotifier(out sender, log zerolog.Logger) *Notifier {
	return &Notifier{
		out:        out,
		log:        log.With().Str("component", "discord").Logger(),
		countdowns: make(map[string]countdownMessage),
	}
}

func (n *Notifier) Notify(_ context.Context, event domain.Event) error {
	channelID, ok := channelOf(event.SessionID)
	if !ok {
		return nil
	}

	switch p := event.Payload.(type) {
	case domain.CountdownPayload:
		return n.countdown(channelID, event.SessionID, p)
	case domain.QuestionPayload:
		n.present(event.SessionID, p.Index)
	case domain.GameFinishedPayload, domain.AwaitingNamePayload:
		n.forget(event.SessionID)
	}
	if event.Type == domain.EventSessionDiscarded {
		n.forget(event.SessionID)
		return nil
	}

	msg := Render(event)
	if msg == nil {
		return nil
	}
	if _, err := n.out.ChannelMessageSendComplex(channelID, msg); err != nil {
		return fmt.Errorf("discord send %s: %w", event.Type, err)
	}
	return nil
}

func (n *Notifier) countdown(channelID, sessionID string, p domain.CountdownPayload) error {
	content := CountdownText(p)

	n.mu.Lock()
	cur, ok := n.countdowns[sessionID]
	n.mu.Unlock()

	if ok && p.QuestionIndex < cur.index {
		// a notice for a question that has already been replaced
		return nil
	}
	if ok && cur.index == p.QuestionIndex && cur.messageID != "" {
		if _, err := n.out.ChannelMessageEdit(channelID, cur.messageID, content); err != nil {
			// edits are cosmetic; the answer flow does not depend on them
			n.log.Debug().Err(err).Str("session_id", sessionID).Msg("countdown edit failed")
		}
		return nil
	}

	msg, err := n.out.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: content})
	if err != nil {
		return fmt.Errorf("discord countdown: %w", err)
	}
	n.mu.Lock()
	n.countdowns[sessionID] = countdownMessage{index: p.QuestionIndex, messageID: msg.ID}
	n.mu.Unlock()
	return nil
}

// present records the question now on screen; its countdown message is sent
// by the first countdown notice.
func (n *Notifier) present(sessionID string, index int) {
	n.mu.Lock()
	if cur, ok := n.countdowns[sessionID]; !ok || cur.index != index {
		n.countdowns[sessionID] = countdownMessage{index: index}
	}
	n.mu.Unlock()
}

func (n *Notifier) forget(sessionID string) {
	n.mu.Lock()
	delete(n.countdowns, sessionID)
	n.mu.Unlock()
}
