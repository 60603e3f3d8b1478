package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"trivia-quiz-service/internal/app"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	GameSettings struct {
		AnswerTimeLimit string   `yaml:"answer_time_limit"`
		Checkpoints     []string `yaml:"checkpoints"`
		StreakBonus     int      `yaml:"streak_bonus"`
		PrizeCategories []string `yaml:"prize_categories"`
	} `yaml:"game"`
	Questions struct {
		File     string `yaml:"file"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"questions"`
	Leaderboard struct {
		Backend    string `yaml:"backend"`
		File       string `yaml:"file"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"leaderboard"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Discord struct {
		Token           string   `yaml:"token"`
		AllowedChannels []string `yaml:"allowed_channels"`
	} `yaml:"discord"`
}

// Load reads an optional .env file, then the YAML config at path, then
// applies environment overrides. A missing YAML file leaves defaults in place.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	override(&cfg.Log.Level, "LOG_LEVEL")
	override(&cfg.Log.Format, "LOG_FORMAT")
	override(&cfg.Server.Port, "PORT")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Postgres.URL, "DATABASE_URL")
	override(&cfg.Discord.Token, "DISCORD_TOKEN")
	override(&cfg.Leaderboard.Backend, "LEADERBOARD_BACKEND")
	override(&cfg.Questions.File, "QUESTIONS_FILE")
	if v := os.Getenv("ANSWER_TIME_LIMIT"); v != "" {
		cfg.GameSettings.AnswerTimeLimit = v
	}
	if v := os.Getenv("STREAK_BONUS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GameSettings.StreakBonus = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Questions.File == "" {
		cfg.Questions.File = "config/questions.yaml"
	}
	if cfg.Leaderboard.Backend == "" {
		cfg.Leaderboard.Backend = "file"
	}
	if cfg.Leaderboard.File == "" {
		cfg.Leaderboard.File = "leaderboard.yaml"
	}
	if cfg.Leaderboard.SQLitePath == "" {
		cfg.Leaderboard.SQLitePath = "leaderboard.db"
	}
	cfg.Leaderboard.Backend = strings.ToLower(cfg.Leaderboard.Backend)
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Game converts the game section into engine settings. Unset values fall
// back to the engine defaults.
func (c Config) Game() app.GameConfig {
	def := app.DefaultGameConfig()
	game := app.GameConfig{
		AnswerTimeLimit: TTLDuration(c.GameSettings.AnswerTimeLimit, def.AnswerTimeLimit),
		StreakBonus:     c.GameSettings.StreakBonus,
		PrizeCategories: c.GameSettings.PrizeCategories,
	}
	if c.GameSettings.Checkpoints != nil {
		game.Checkpoints = make([]time.Duration, 0, len(c.GameSettings.Checkpoints))
		for _, raw := range c.GameSettings.Checkpoints {
			if d, err := time.ParseDuration(raw); err == nil {
				game.Checkpoints = append(game.Checkpoints, d)
			}
		}
	} else {
		game.Checkpoints = def.Checkpoints
	}
	return game
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
