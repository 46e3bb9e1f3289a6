package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"tesoro/internal/advisor"
	"tesoro/internal/amqp"
	"tesoro/internal/auth"
	"tesoro/internal/cli"
	"tesoro/internal/core"
	apphttp "tesoro/internal/http"
	"tesoro/internal/session"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	// Setup structured logging
	logger := cli.SetupLogger()

	// Load and validate configuration
	cfg := cli.LoadServerConfig(logger)

	// Initialize storage backend
	store := cli.OpenStore(logger, cfg)
	defer store.Close()

	// Initialize AMQP client for publishing transaction events (optional).
	// The tesoro-worker consumes these and appends them to the export ledger.
	var events session.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPRoutingKey)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event export", "error", err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("AMQP client initialized - transactions will export via tesoro-worker")
		}
	} else {
		logger.Info("AMQP disabled - transaction events will not be published")
	}

	sessions := session.NewManager(store, session.Config{
		Debounce:     cfg.SaveDebounce,
		BaseCurrency: core.Currency(cfg.BaseCurrencyDefault),
		Events:       events,
	})

	// Initialize Gemini advice client (optional)
	adv, err := advisor.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("Failed to initialize advice client", "error", err)
		os.Exit(1)
	}
	if adv.Configured() {
		logger.Info("Advice client initialized", "model", cfg.GeminiModel)
	} else {
		logger.Info("AI advice disabled - no GEMINI_API_KEY provided")
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		Auth:               auth.NewService(cfg.JWTSecret, cfg.JWTTTL),
		Sessions:           sessions,
		Advisor:            adv,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		OverviewCacheTTL:   cfg.OverviewCacheTTL,
	})

	// Configure server timeouts and limits. Chat image uploads and model
	// calls need wider windows than a plain JSON API.
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 2 * time.Minute
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown: stop accepting requests, then flush every dirty
	// session before the store closes.
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := sessions.FlushAll(shutdownCtx); err != nil {
			logger.Error("Failed to flush sessions", "error", err)
		}
	})

	logger.Info("Starting tesoro server", "port", cfg.Port, "backend", cfg.StorageBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
