package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"trivia-quiz-service/internal/domain"
)

// recordScore max-merges a score. A first-time username also gets the next
// insertion sequence, which later breaks ties in Ranked.
var recordScore = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1])
if not current then
  local seq = redis.call('INCR', KEYS[3])
  redis.call('HSET', KEYS[2], ARGV[1], seq)
  redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
  return 1
end
if tonumber(ARGV[2]) > tonumber(current) then
  redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
  return 1
end
return 0
`)

// Leaderboard keeps one board per category in three keys sharing a hash tag:
//
//	HSET trivia:lb:{category}:scores {username} {best}
//	HSET trivia:lb:{category}:order  {username} {seq}
//	INCR trivia:lb:{category}:seq
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

func (l *Leaderboard) IsTaken(ctx context.Context, category, username string) (bool, error) {
	ok, err := l.client.HExists(ctx, scoresKey(category), username).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return ok, nil
}

func (l *Leaderboard) RecordScore(ctx context.Context, category, username string, score int) error {
	keys := []string{scoresKey(category), orderKey(category), seqKey(category)}
	if err := recordScore.Run(ctx, l.client, keys, username, score).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (l *Leaderboard) Ranked(ctx context.Context, category string) ([]domain.LeaderboardEntry, error) {
	pipe := l.client.Pipeline()
	scoresCmd := pipe.HGetAll(ctx, scoresKey(category))
	orderCmd := pipe.HGetAll(ctx, orderKey(category))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, unavailable(err)
	}

	type row struct {
		entry domain.LeaderboardEntry
		seq   int64
	}
	rows := make([]row, 0, len(scoresCmd.Val()))
	for username, raw := range scoresCmd.Val() {
		score, err := strconv.Atoi(raw)
		if err != nil {
			return nil, unavailable(fmt.Errorf("score of %q: %w", username, err))
		}
		seq, _ := strconv.ParseInt(orderCmd.Val()[username], 10, 64)
		rows = append(rows, row{entry: domain.LeaderboardEntry{Username: username, Score: score}, seq: seq})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].entry.Score != rows[j].entry.Score {
			return rows[i].entry.Score > rows[j].entry.Score
		}
		return rows[i].seq < rows[j].seq
	})

	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry)
	}
	return entries, nil
}

func scoresKey(category string) string { return "trivia:lb:{" + category + "}:scores" }
func orderKey(category string) string  { return "trivia:lb:{" + category + "}:order" }
func seqKey(category string) string    { return "trivia:lb:{" + category + "}:seq" }

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
