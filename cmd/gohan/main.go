// gohan-bot entry point: a conversational fridge and meal assistant.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bonyuta0204/gohan-bot/internal/api"
	"github.com/bonyuta0204/gohan-bot/internal/domain/conversation"
	"github.com/bonyuta0204/gohan-bot/internal/domain/fridge"
	"github.com/bonyuta0204/gohan-bot/internal/domain/tool"
	"github.com/bonyuta0204/gohan-bot/internal/infra/config"
	"github.com/bonyuta0204/gohan-bot/internal/infra/openai"
	"github.com/bonyuta0204/gohan-bot/internal/infra/sqlite"
	"github.com/bonyuta0204/gohan-bot/internal/server"
	"github.com/bonyuta0204/gohan-bot/internal/slackbot"
	"github.com/bonyuta0204/gohan-bot/internal/version"
	pkgauth "github.com/bonyuta0204/gohan-bot/pkg/auth"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "gohan",
		Short:         "Fridge inventory and meal log assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newMigrateCmd(&configPath))
	root.AddCommand(newTokenCmd(&configPath))
	root.AddCommand(newVersionCmd())

	return root
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			db, err := sqlite.NewDB(cfg.DBPath)
			if err != nil {
				return err
			}
			if err := sqlite.MigrateUp(db); err != nil {
				return err
			}

			store := fridge.NewStore(db)
			registry := tool.NewRegistry(store)
			history := conversation.NewHistoryStore(db)
			llm := openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
			convo := conversation.NewService(llm, registry, history)

			deps := api.Deps{Conversation: convo, JWTSecret: cfg.JWTSecret}
			var slackHandler *slackbot.Handler
			if cfg.SlackBotToken != "" && cfg.SlackSigningSecret != "" {
				slackHandler = slackbot.NewHandler(convo, cfg.SlackBotToken, cfg.SlackSigningSecret)
				deps.SlackEvents = slackHandler
			} else {
				log.Info().Msg("slack tokens not configured, slack surface disabled")
			}

			srvCfg := server.DefaultConfig()
			srvCfg.Host = cfg.Host
			srvCfg.Port = cfg.Port
			srv := server.NewServer(api.NewRouter(deps), db, srvCfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(ctx) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if slackHandler != nil {
				slackHandler.Wait()
			}
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			db, err := sqlite.NewDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqlite.MigrateUp(db); err != nil {
				return err
			}
			v, err := sqlite.MigrationVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database at migration version %d\n", v)
			return nil
		},
	}
}

func newTokenCmd(configPath *string) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			token, err := pkgauth.GenerateToken(cfg.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cli", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", pkgauth.DefaultTokenTTL, "token lifetime")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
