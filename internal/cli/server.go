package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/chat"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/logger"
	"trivia-quiz-service/internal/transport/discord"
	transport "trivia-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config and PORT)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := RunMigrations(ctx, cfg.Postgres.URL, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	stores, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	hub := transport.NewHub()
	notifiers := app.Notifiers{hub}

	var discordSession *discordgo.Session
	if cfg.Discord.Token != "" {
		discordSession, err = discord.NewSession(cfg.Discord.Token)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, discord.NewNotifier(discordSession, log))
	}

	menus := chat.NewMenuFollower(notifiers, stores.bank.Categories)
	engine := app.NewEngine(stores.sessions, stores.bank, stores.board, menus, cfg.Game(),
		app.WithLogger(logger.Component(log, "engine")))
	defer engine.Close()
	router := chat.NewRouter(engine, stores.bank, menus, logger.Component(log, "chat"))

	ws := transport.NewWSHandler(router, engine, hub, log)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewMux(ws, transport.NewLeaderboardHandler(engine, log)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting trivia service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if discordSession != nil {
		bot := discord.NewBot(discordSession, router, cfg.Discord.AllowedChannels, log)
		g.Go(func() error {
			return bot.Run(gctx)
		})
	}
	return g.Wait()
}
