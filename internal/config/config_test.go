package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: "9090"
game:
  answer_time_limit: 20s
  checkpoints: [15s, 5s]
  streak_bonus: 4
  prize_categories: [Prize]
leaderboard:
  backend: SQLite
redis:
  addr: localhost:6379
  ttl: 5m
`

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("LEADERBOARD_BACKEND", "")
	t.Setenv("PORT", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, "redis:6380", cfg.Redis.Addr)
	require.Equal(t, "sqlite", cfg.Leaderboard.Backend)
	require.Equal(t, 5*time.Minute, TTLDuration(cfg.Redis.TTL, time.Minute))

	game := cfg.Game()
	require.Equal(t, 20*time.Second, game.AnswerTimeLimit)
	require.Equal(t, []time.Duration{15 * time.Second, 5 * time.Second}, game.Checkpoints)
	require.Equal(t, 4, game.StreakBonus)
	require.Equal(t, []string{"Prize"}, game.PrizeCategories)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "file", cfg.Leaderboard.Backend)
	require.Equal(t, "config/questions.yaml", cfg.Questions.File)

	game := cfg.Game()
	require.Equal(t, 30*time.Second, game.AnswerTimeLimit)
	require.Len(t, game.Checkpoints, 3)
}

func TestCustomLimitKeepsDefaultCheckpoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  answer_time_limit: 45s\n"), 0o644))
	t.Setenv("ANSWER_TIME_LIMIT", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	game := cfg.Game()
	require.Equal(t, 45*time.Second, game.AnswerTimeLimit)
	require.Equal(t, []time.Duration{20 * time.Second, 10 * time.Second, 5 * time.Second}, game.Checkpoints)

	t.Setenv("ANSWER_TIME_LIMIT", "12s")
	cfg, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, 12*time.Second, cfg.Game().AnswerTimeLimit)
	require.Len(t, cfg.Game().Checkpoints, 3)
}

func TestTTLDurationFallback(t *testing.T) {
	require.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
	require.Equal(t, time.Minute, TTLDuration("", time.Minute))
}
