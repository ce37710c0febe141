package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/bootstrap"
	"github.com/johnquangdev/networking/pkg/config"
)

// worker consumes the analysis queue until SIGINT or SIGTERM
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, true, logger)
	if err != nil {
		logger.Fatal("failed to initialize infrastructure", zap.Error(err))
	}
	defer infra.Close(logger)

	service := infra.Analysis(cfg, true, logger)
	if err := service.StartWorkerPool(ctx, cfg.Analysis.Workers); err != nil {
		logger.Error("failed to start worker pool", zap.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := service.StopWorkerPool(); err != nil {
		logger.Error("failed to stop worker pool", zap.Error(err))
	}
}
