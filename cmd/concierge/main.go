package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/caldera-ai/concierge/internal/config"
	"github.com/caldera-ai/concierge/internal/dispatch"
	"github.com/caldera-ai/concierge/internal/ledger"
	"github.com/caldera-ai/concierge/internal/provider/calendar"
	"github.com/caldera-ai/concierge/internal/provider/mailer"
	openaiprovider "github.com/caldera-ai/concierge/internal/provider/openai"
	slackprovider "github.com/caldera-ai/concierge/internal/provider/slack"
	"github.com/caldera-ai/concierge/internal/saga"
	"github.com/caldera-ai/concierge/internal/server"
	"github.com/caldera-ai/concierge/internal/store/postgres"
	redisstore "github.com/caldera-ai/concierge/internal/store/redis"
	"github.com/caldera-ai/concierge/internal/tool"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("CONCIERGE_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("CONCIERGE_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis for the audit event feed.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create the audit ledger and start retention cleanup.
	led := ledger.New(store.Audit(), pubsub)
	led.StartRetentionLoop(ctx, cfg.Retention.PurgeInterval, cfg.Retention.Window)

	// Build provider clients. Unconfigured providers stay nil; their tools
	// dispatch as unknown.
	providers := dispatch.Providers{
		Knowledge:    store.Knowledge(),
		HelpdeskAddr: cfg.Mail.HelpdeskAddr,
	}
	if cfg.Calendar.BaseURL != "" {
		providers.Calendar = calendar.New(cfg.Calendar.BaseURL, cfg.Calendar.APIKey, cfg.Calendar.Timeout)
	}
	if cfg.Mail.BaseURL != "" {
		providers.Mailer = mailer.New(cfg.Mail.BaseURL, cfg.Mail.APIKey, cfg.Mail.FromAddr, cfg.Mail.Timeout)
	}
	if cfg.Slack.BotToken != "" {
		providers.Messenger = slackprovider.NewFromToken(cfg.Slack.BotToken)
	}
	if cfg.OpenAI.APIKey != "" {
		openaiClient := openaiprovider.New(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel)
		providers.Transcriber = openaiClient
		providers.Vision = openaiClient
	}

	// Register the built-in tool catalog.
	registry := tool.NewRegistry()
	for _, def := range tool.Builtin() {
		registry.MustRegister(def)
	}

	// Create the dispatcher and saga coordinator.
	dispatcher := dispatch.New(registry, led, providers)
	coordinator := saga.NewCoordinator(led)
	flows := saga.NewFlows(coordinator, dispatcher)

	// Create HTTP server with all routes wired.
	srv := server.New(cfg, led, dispatcher, flows, registry, pubsub)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
