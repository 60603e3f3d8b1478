package cli

import (
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/infra/file"
	"trivia-quiz-service/internal/infra/postgres"
	"trivia-quiz-service/internal/logger"
)

// NewSeedCmd imports the YAML question file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import questions from YAML into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if source == "" {
				source = cfg.Questions.File
			}

			categories, err := file.ReadQuestions(source)
			if err != nil {
				return err
			}
			if err := RunMigrations(cmd.Context(), cfg.Postgres.URL, log); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.Import(cmd.Context(), pool, categories); err != nil {
				return err
			}
			log.Info().Str("file", source).Int("categories", len(categories)).Msg("questions imported")
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "file", "", "question file (defaults to questions.file)")
	return cmd
}
