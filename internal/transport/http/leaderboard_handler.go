package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/domain"
)

// Ranker serves ranked boards; *app.Engine implements it.
type Ranker interface {
	Ranked(ctx context.Context, category string) (domain.Leaderboard, error)
}

// LeaderboardHandler serves GET /leaderboard/{category}.
type LeaderboardHandler struct {
	ranker Ranker
	log    zerolog.Logger
}

func NewLeaderboardHandler(ranker Ranker, log zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{ranker: ranker, log: log.With().Str("component", "http").Logger()}
}

func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	if category == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "missing category"})
		return
	}
	lb, err := h.ranker.Ranked(r.Context(), category)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, errorPayload{Message: err.Error()})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("category", category).Msg("leaderboard")
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// NewMux wires the HTTP surface of the service.
func NewMux(ws *WSHandler, leaderboard *LeaderboardHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", ws.ServeWS)
	mux.Handle("GET /leaderboard/{category}", leaderboard)
	return mux
}
