package http

import (
	"context"
	"fmt"
	"sync"

	"trivia-quiz-service/internal/domain"
)

// Hub routes engine events to the websocket connection that owns the
// session id. Events for unknown ids belong to another transport and are
// ignored.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan outboundMessage[any]
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]chan outboundMessage[any])}
}

func (h *Hub) register(sessionID string, send chan outboundMessage[any]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[sessionID] = send
}

func (h *Hub) unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, sessionID)
}

func (h *Hub) Notify(_ context.Context, event domain.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	send, ok := h.clients[event.SessionID]
	if !ok {
		return nil
	}
	select {
	case send <- outboundMessage[any]{Type: string(event.Type), Payload: event.Payload}:
		return nil
	default:
		return fmt.Errorf("ws client %s: send buffer full", event.SessionID)
	}
}
