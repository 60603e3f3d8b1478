package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"trivia-quiz-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS leaderboard (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT    NOT NULL,
	username TEXT    NOT NULL,
	score    INTEGER NOT NULL,
	UNIQUE (category, username)
);`

// Leaderboard stores best scores in SQLite. The autoincrement id records
// first-registration order and breaks score ties.
type Leaderboard struct {
	db *sql.DB
}

func NewLeaderboard(path string) (*Leaderboard, error) {
	if strings.TrimSpace(path) == "" {
		path = "leaderboard.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init leaderboard schema: %w", err)
	}
	return &Leaderboard{db: db}, nil
}

func (l *Leaderboard) Close() error {
	return l.db.Close()
}

func (l *Leaderboard) IsTaken(ctx context.Context, category, username string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM leaderboard WHERE category = ? AND username = ?`,
		category, username,
	).Scan(&n)
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (l *Leaderboard) RecordScore(ctx context.Context, category, username string, score int) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO leaderboard (category, username, score) VALUES (?, ?, ?)
		ON CONFLICT (category, username) DO UPDATE SET score = MAX(score, excluded.score)`,
		category, username, score,
	)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (l *Leaderboard) Ranked(ctx context.Context, category string) ([]domain.LeaderboardEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT username, score FROM leaderboard WHERE category = ? ORDER BY score DESC, id ASC`,
		category,
	)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0)
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Score); err != nil {
			return nil, unavailable(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return entries, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
