package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/chat"
)

// CommandPrefix addresses the bot in guild channels. Direct messages need no prefix.
const CommandPrefix = "!trivia"

// Handler consumes chat messages; *chat.Router implements it.
type Handler interface {
	Handle(ctx context.Context, msg chat.Message) error
}

// Bot connects a Discord gateway session to the chat router.
type Bot struct {
	session *discordgo.Session
	handler Handler
	allowed map[string]struct{}
	log     zerolog.Logger
}

// NewSession opens nothing yet; it only prepares an authenticated client.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
	return session, nil
}

// NewBot serves every channel when allowedChannels is empty.
func NewBot(session *discordgo.Session, handler Handler, allowedChannels []string, log zerolog.Logger) *Bot {
	allowed := make(map[string]struct{}, len(allowedChannels))
	for _, id := range allowedChannels {
		if id = strings.TrimSpace(id); id != "" {
			allowed[id] = struct{}{}
		}
	}
	b := &Bot{
		session: session,
		handler: handler,
		allowed: allowed,
		log:     log.With().Str("component", "discord").Logger(),
	}
	session.AddHandler(b.handleMessage)
	return b
}

// Run keeps the gateway connection open until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return err
	}
	if b.session.State != nil && b.session.State.User != nil {
		b.log.Info().Str("user", b.session.State.User.Username).Int("channels", len(b.allowed)).Msg("discord bot running")
	}
	<-ctx.Done()
	return b.session.Close()
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	text, ok := b.accept(m.ChannelID, m.GuildID, m.Content)
	if !ok {
		return
	}

	msg := chat.Message{
		SessionID:  SessionID(m.ChannelID, m.Author.ID),
		Text:       text,
		ReceivedAt: time.Now(),
	}
	if err := b.handler.Handle(context.Background(), msg); err != nil {
		b.log.Warn().Err(err).Str("session_id", msg.SessionID).Msg("handle message")
	}
}

// accept filters channels and strips the command prefix in guilds.
func (b *Bot) accept(channelID, guildID, content string) (string, bool) {
	if len(b.allowed) > 0 {
		if _, ok := b.allowed[channelID]; !ok {
			return "", false
		}
	}
	content = strings.TrimSpace(content)
	if guildID == "" {
		return strings.TrimSpace(strings.TrimPrefix(content, CommandPrefix)), true
	}
	rest, ok := strings.CutPrefix(content, CommandPrefix)
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		rest = "/start"
	}
	return rest, true
}
