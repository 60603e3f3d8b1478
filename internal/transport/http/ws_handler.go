package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/chat"
	"trivia-quiz-service/internal/domain"
)

// MessageHandler consumes chat messages; *chat.Router implements it.
type MessageHandler interface {
	Handle(ctx context.Context, msg chat.Message) error
	SendMenu(ctx context.Context, sessionID string) error
}

// Exiter ends a session when its connection goes away.
type Exiter interface {
	Exit(ctx context.Context, sessionID string) error
}

type WSHandler struct {
	router   MessageHandler
	game     Exiter
	hub      *Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(router MessageHandler, game Exiter, hub *Hub, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		router: router,
		game:   game,
		hub:    hub,
		log:    log.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type textPayload struct {
	Text string `json:"text"`
}

type hintPayload struct {
	Hint string `json:"hint"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type connectedPayload struct {
	SessionID string `json:"sessionId"`
}

// ServeWS upgrades HTTP requests to websockets. Each connection is one chat
// session; inbound text goes through the chat router and engine events come
// back through the hub.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	sessionID := "ws:" + uuid.NewString()
	log := h.log.With().Str("session_id", sessionID).Logger()
	// Events outlive the request context: timers keep firing until Exit.
	ctx := context.WithoutCancel(r.Context())

	send := make(chan outboundMessage[any], 32)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				// keep draining so the hub never blocks on this client
				for range send {
				}
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "connected", Payload: connectedPayload{SessionID: sessionID}}
	h.hub.register(sessionID, send)
	log.Info().Msg("ws client connected")

	if err := h.router.SendMenu(ctx, sessionID); err != nil {
		log.Warn().Err(err).Msg("send menu")
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		receivedAt := time.Now()

		var text string
		switch inbound.Type {
		case "message":
			var payload textPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.reply(send, "invalid message payload")
				continue
			}
			text = payload.Text
		case "hint":
			var payload hintPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.reply(send, "invalid hint payload")
				continue
			}
			text = payload.Hint
		default:
			h.reply(send, "unsupported message type")
			continue
		}

		if err := h.router.Handle(ctx, chat.Message{SessionID: sessionID, Text: text, ReceivedAt: receivedAt}); err != nil {
			log.Warn().Err(err).Msg("handle message")
		}
	}

	if err := h.game.Exit(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		log.Warn().Err(err).Msg("exit on disconnect")
	}
	h.hub.unregister(sessionID)
	close(send)
	<-writerDone
	log.Info().Msg("ws client disconnected")
}

func (h *WSHandler) reply(send chan<- outboundMessage[any], message string) {
	select {
	case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}:
	default:
	}
}
