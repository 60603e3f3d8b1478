package app

import (
	"sort"
	"strings"
	"time"
)

// GameConfig holds the tunables of a game.
type GameConfig struct {
	AnswerTimeLimit time.Duration
	// Checkpoints are the remaining times at which a countdown notice is sent.
	Checkpoints     []time.Duration
	StreakBonus     int
	PrizeCategories []string
}

func DefaultGameConfig() GameConfig {
	return GameConfig{
		AnswerTimeLimit: 30 * time.Second,
		Checkpoints:     []time.Duration{20 * time.Second, 10 * time.Second, 5 * time.Second},
		StreakBonus:     3,
	}
}

// normalized fills defaults and keeps checkpoints strictly inside the limit,
// unique and sorted from the largest remaining time down.
func (c GameConfig) normalized() GameConfig {
	def := DefaultGameConfig()
	if c.AnswerTimeLimit <= 0 {
		c.AnswerTimeLimit = def.AnswerTimeLimit
	}
	// nil means unset; an empty slice turns the notices off
	if c.Checkpoints == nil {
		c.Checkpoints = def.Checkpoints
	}
	if c.StreakBonus <= 0 {
		c.StreakBonus = def.StreakBonus
	}

	seen := make(map[time.Duration]struct{}, len(c.Checkpoints))
	checkpoints := make([]time.Duration, 0, len(c.Checkpoints))
	for _, cp := range c.Checkpoints {
		if cp <= 0 || cp >= c.AnswerTimeLimit {
			continue
		}
		if _, dup := seen[cp]; dup {
			continue
		}
		seen[cp] = struct{}{}
		checkpoints = append(checkpoints, cp)
	}
	sort.Slice(checkpoints, func(i, j int) bool { return checkpoints[i] > checkpoints[j] })
	c.Checkpoints = checkpoints
	return c
}

func (c GameConfig) isPrize(category string) bool {
	for _, p := range c.PrizeCategories {
		if strings.EqualFold(p, category) {
			return true
		}
	}
	return false
}
