package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bizbook/internal/amqp"
	"bizbook/internal/config"
	"bizbook/internal/insights"
	applog "bizbook/internal/log"
	"bizbook/internal/storage"
	"bizbook/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: "insight-worker",
		JSON:      cfg.LogJSON,
	})
	applog.SetDefault(logger)

	logger.Info("Starting insight worker")

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	generator, err := insights.NewGenerator(ctx, cfg.GeminiModel)
	if err != nil {
		logger.Error("Failed to initialize insight generator", "error", err)
		os.Exit(1)
	}

	w := worker.NewInsightWorker(repo, repo, generator, cfg.InsightCooldown)

	// Regenerate once on startup so a fresh deployment has a narrative
	// before the first ledger change.
	w.Notify()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		return amqpClient.ConsumeLedgerEvents(gctx, w.HandleLedgerEvent)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
