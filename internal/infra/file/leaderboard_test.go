package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/domain"
)

func TestLeaderboardPersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leaderboard.yaml")

	board := NewLeaderboard(path)
	require.NoError(t, board.RecordScore(ctx, "History", "Ann", 3))
	require.NoError(t, board.RecordScore(ctx, "History", "Bob", 4))
	require.NoError(t, board.RecordScore(ctx, "History", "Cid", 3))
	require.NoError(t, board.RecordScore(ctx, "History", "Bob", 2))

	reopened := NewLeaderboard(path)
	entries, err := reopened.Ranked(ctx, "History")
	require.NoError(t, err)
	require.Equal(t, []domain.LeaderboardEntry{
		{Username: "Bob", Score: 4},
		{Username: "Ann", Score: 3},
		{Username: "Cid", Score: 3},
	}, entries)

	taken, err := reopened.IsTaken(ctx, "History", "Ann")
	require.NoError(t, err)
	require.True(t, taken)
}

func TestLeaderboardMissingFileIsEmpty(t *testing.T) {
	board := NewLeaderboard(filepath.Join(t.TempDir(), "none.yaml"))
	entries, err := board.Ranked(context.Background(), "Science")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestLeaderboardCorruptFileStartsOver(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leaderboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("History: [this is: not: valid"), 0o644))

	board := NewLeaderboard(path)
	taken, err := board.IsTaken(ctx, "History", "Ann")
	require.NoError(t, err)
	require.False(t, taken)

	require.NoError(t, board.RecordScore(ctx, "History", "Ann", 2))
	entries, err := board.Ranked(ctx, "History")
	require.NoError(t, err)
	require.Equal(t, []domain.LeaderboardEntry{{Username: "Ann", Score: 2}}, entries)
}
