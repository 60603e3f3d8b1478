package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-quiz-service/internal/domain"
)

// Leaderboard is an in-memory app.LeaderboardStore. Rows keep their insertion
// order, which breaks score ties.
type Leaderboard struct {
	mu     sync.RWMutex
	boards map[string][]domain.LeaderboardEntry
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{boards: make(map[string][]domain.LeaderboardEntry)}
}

func (l *Leaderboard) IsTaken(_ context.Context, category, username string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return indexOf(l.boards[category], username) >= 0, nil
}

func (l *Leaderboard) RecordScore(_ context.Context, category, username string, score int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := l.boards[category]
	if i := indexOf(rows, username); i >= 0 {
		rows[i].Score = max(rows[i].Score, score)
		return nil
	}
	l.boards[category] = append(rows, domain.LeaderboardEntry{Username: username, Score: score})
	return nil
}

func (l *Leaderboard) Ranked(_ context.Context, category string) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	entries := append([]domain.LeaderboardEntry(nil), l.boards[category]...)
	l.mu.RUnlock()
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return entries, nil
}

func indexOf(rows []domain.LeaderboardEntry, username string) int {
	for i, row := range rows {
		if row.Username == username {
			return i
		}
	}
	return -1
}
