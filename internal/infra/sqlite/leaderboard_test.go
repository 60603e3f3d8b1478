package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/domain"
)

func newTestBoard(t *testing.T) *Leaderboard {
	t.Helper()
	board, err := NewLeaderboard(filepath.Join(t.TempDir(), "leaderboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = board.Close() })
	return board
}

func TestLeaderboardUpsertKeepsBest(t *testing.T) {
	ctx := context.Background()
	board := newTestBoard(t)

	require.NoError(t, board.RecordScore(ctx, "History", "Ann", 3))
	require.NoError(t, board.RecordScore(ctx, "History", "Bob", 5))
	require.NoError(t, board.RecordScore(ctx, "History", "Cid", 3))
	require.NoError(t, board.RecordScore(ctx, "History", "Bob", 0))
	require.NoError(t, board.RecordScore(ctx, "Science", "Ann", 9))

	entries, err := board.Ranked(ctx, "History")
	require.NoError(t, err)
	require.Equal(t, []domain.LeaderboardEntry{
		{Username: "Bob", Score: 5},
		{Username: "Ann", Score: 3},
		{Username: "Cid", Score: 3},
	}, entries)

	taken, err := board.IsTaken(ctx, "History", "Bob")
	require.NoError(t, err)
	require.True(t, taken)
	taken, err = board.IsTaken(ctx, "Mythology & Religion", "Bob")
	require.NoError(t, err)
	require.False(t, taken)
}

func TestLeaderboardClosedIsUnavailable(t *testing.T) {
	board := newTestBoard(t)
	require.NoError(t, board.Close())

	_, err := board.Ranked(context.Background(), "History")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
