package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/txplain/txplain/service/config"
	"github.com/txplain/txplain/service/explain"
	"github.com/txplain/txplain/service/llm"
	"github.com/txplain/txplain/service/market"
	"github.com/txplain/txplain/service/metrics"
	"github.com/txplain/txplain/service/nats"
	"github.com/txplain/txplain/service/server"
	"github.com/txplain/txplain/service/solana"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
		"provider", cfg.Provider,
	)

	// Prometheus collectors (optional)
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.NewMetrics(prometheus.DefaultRegisterer)
		logger.Info("metrics collection enabled")
	}

	// Initialize Solana RPC client
	// Note: For premium RPC endpoints, include API key in the URL
	solanaRPC := solana.NewRPCClient(cfg.SolanaRPCURL)
	ledger := solana.NewClient(solanaRPC, cfg.SolanaRPCURL, m, logger)
	logger.Info("initialized solana RPC client", "url", cfg.SolanaRPCURL)

	// Market data client with a process-lifetime metadata cache
	marketClient := market.NewClient(cfg.MarketDataURL, &http.Client{Timeout: 15 * time.Second}, market.NewCache(), m, logger)
	logger.Info("initialized market data client", "url", cfg.MarketDataURL)

	// Text-generation provider per configuration
	generator, err := llm.FromConfig(cfg, &http.Client{Timeout: 60 * time.Second}, m, logger)
	if err != nil {
		logger.Error("failed to initialize text-generation provider", "error", err)
		os.Exit(1)
	}
	logger.Info("initialized text-generation provider", "provider", generator.Name())

	explainer := explain.New(marketClient, generator, m, logger)

	// Optional NATS publisher for completed analyses
	var publisher nats.Publisher
	if cfg.NATSURL != "" {
		p, err := nats.NewPublisher(cfg.NATSURL, m, logger)
		if err != nil {
			logger.Error("failed to initialize NATS publisher", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
	} else {
		logger.Info("NATS_URL not set, event publishing disabled")
	}

	httpServer := server.New(cfg.ServerAddr, cfg, ledger, explainer, publisher, m, logger)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
