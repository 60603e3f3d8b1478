package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"trivia-quiz-service/internal/domain"
)

// Leaderboard persists boards to a single YAML document keyed by category.
// Each category keeps its entries in first-registration order:
//
//	History:
//	  - username: Ann
//	    score: 3
//
// Every write replaces the file atomically. A missing or unreadable document
// is treated as an empty leaderboard.
type Leaderboard struct {
	path string
	mu   sync.Mutex
}

func NewLeaderboard(path string) *Leaderboard {
	return &Leaderboard{path: path}
}

type boards map[string][]domain.LeaderboardEntry

func (l *Leaderboard) IsTaken(_ context.Context, category, username string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, err := l.read()
	if err != nil {
		return false, err
	}
	for _, e := range b[category] {
		if e.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (l *Leaderboard) RecordScore(_ context.Context, category, username string, score int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, err := l.read()
	if err != nil {
		return err
	}

	entries := b[category]
	found := false
	for i := range entries {
		if entries[i].Username == username {
			if score <= entries[i].Score {
				return nil
			}
			entries[i].Score = score
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, domain.LeaderboardEntry{Username: username, Score: score})
	}
	b[category] = entries
	return l.write(b)
}

func (l *Leaderboard) Ranked(_ context.Context, category string) ([]domain.LeaderboardEntry, error) {
	l.mu.Lock()
	b, err := l.read()
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	entries := append([]domain.LeaderboardEntry(nil), b[category]...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return entries, nil
}

func (l *Leaderboard) read() (boards, error) {
	raw, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return boards{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	var b boards
	if err := yaml.Unmarshal(raw, &b); err != nil || b == nil {
		// corrupt documents start over
		return boards{}, nil
	}
	return b, nil
}

func (l *Leaderboard) write(b boards) error {
	raw, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", domain.ErrStoreUnavailable, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}
