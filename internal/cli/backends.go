package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/infra/file"
	"trivia-quiz-service/internal/infra/memory"
	pgstore "trivia-quiz-service/internal/infra/postgres"
	redisstore "trivia-quiz-service/internal/infra/redis"
	"trivia-quiz-service/internal/infra/sqlite"
)

// backends holds the stores selected by configuration plus the clients
// that must be closed on shutdown.
type backends struct {
	sessions app.SessionRepository
	bank     app.QuestionBank
	board    app.LeaderboardStore

	closers []func() error
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg config.Config, log zerolog.Logger) (*backends, error) {
	b := &backends{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, redisClient.Close)
	}

	var loader memory.QuestionLoader = file.NewQuestionLoader(cfg.Questions.File)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
		loader = pgstore.NewQuestionLoader(pool)
		log.Info().Msg("questions served from postgres")
	} else {
		log.Info().Str("file", cfg.Questions.File).Msg("questions served from file")
	}

	cacheTTL := config.TTLDuration(cfg.Questions.CacheTTL, 10*time.Minute)
	if redisClient != nil {
		b.bank = redisstore.NewQuestionBank(redisClient, loader, cacheTTL)
		b.sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	} else {
		b.bank = memory.NewQuestionBank(loader, cacheTTL)
		b.sessions = memory.NewSessionStore()
	}

	switch cfg.Leaderboard.Backend {
	case "file":
		b.board = file.NewLeaderboard(cfg.Leaderboard.File)
	case "sqlite":
		board, err := sqlite.NewLeaderboard(cfg.Leaderboard.SQLitePath)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, board.Close)
		b.board = board
	case "redis":
		if redisClient == nil {
			b.Close()
			return nil, fmt.Errorf("leaderboard backend redis needs redis.addr")
		}
		b.board = redisstore.NewLeaderboard(redisClient)
	case "memory":
		b.board = memory.NewLeaderboard()
	default:
		b.Close()
		return nil, fmt.Errorf("unknown leaderboard backend %q", cfg.Leaderboard.Backend)
	}
	log.Info().Str("backend", cfg.Leaderboard.Backend).Msg("leaderboard store ready")

	return b, nil
}
