package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/logger"
)

// NewLeaderboardCmd prints the ranked board of one category.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard <category>",
		Short: "Print the leaderboard of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

			stores, err := openBackends(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer stores.Close()

			entries, err := stores.board.Ranked(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			lb := domain.NewLeaderboard(args[0], entries)
			out := cmd.OutOrStdout()
			if len(lb.Entries) == 0 {
				fmt.Fprintf(out, "No scores yet for %s.\n", lb.Category)
				return nil
			}
			for _, e := range lb.Entries {
				fmt.Fprintf(out, "%2d. %-20s %d\n", e.Rank, e.Username, e.Score)
			}
			return nil
		},
	}
}
