package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/domain"
)

func TestLeaderboardMaxMergeAndOrder(t *testing.T) {
	ctx := context.Background()
	board := NewLeaderboard()

	require.NoError(t, board.RecordScore(ctx, "History", "Ann", 3))
	require.NoError(t, board.RecordScore(ctx, "History", "Bob", 5))
	require.NoError(t, board.RecordScore(ctx, "History", "Cid", 3))
	require.NoError(t, board.RecordScore(ctx, "History", "Bob", 2))

	entries, err := board.Ranked(ctx, "History")
	require.NoError(t, err)
	require.Equal(t, []domain.LeaderboardEntry{
		{Username: "Bob", Score: 5},
		{Username: "Ann", Score: 3},
		{Username: "Cid", Score: 3},
	}, entries)

	taken, err := board.IsTaken(ctx, "History", "Ann")
	require.NoError(t, err)
	require.True(t, taken)

	taken, err = board.IsTaken(ctx, "Science", "Ann")
	require.NoError(t, err)
	require.False(t, taken)
}

func TestLeaderboardEmptyCategory(t *testing.T) {
	entries, err := NewLeaderboard().Ranked(context.Background(), "Mythology & Religion")
	require.NoError(t, err)
	require.Empty(t, entries)
}
