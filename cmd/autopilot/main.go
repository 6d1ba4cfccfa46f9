package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Freeeeeet/interview_autopilot/internal/app"
	"github.com/Freeeeeet/interview_autopilot/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting interview autopilot",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
		zap.String("notifier", cfg.Notifier),
		zap.String("summarizer", cfg.Summarizer),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error("Autopilot stopped with error", zap.Error(err))
		return
	}
	logger.Info("Autopilot stopped")
}
