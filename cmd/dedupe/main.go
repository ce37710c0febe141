package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/bootstrap"
	"github.com/johnquangdev/networking/internal/usecase/dedupe"
	"github.com/johnquangdev/networking/pkg/config"
)

// dedupe recomputes the potential duplicate contacts of every active user
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

	infra, err := bootstrap.Open(ctx, cfg, false, logger)
	if err != nil {
		logger.Fatal("failed to initialize infrastructure", zap.Error(err))
	}
	defer infra.Close(logger)
	repos := infra.Repos

	service := dedupe.NewService(repos.Users, repos.Contacts, repos.Emails, repos.Duplicates, cfg.Sync.DuplicateThreshold, logger)
	if err := service.RunAll(ctx); err != nil {
		logger.Error("duplicate detection finished with errors", zap.Error(err))
		infra.Close(logger)
		os.Exit(1)
	}
	logger.Info("duplicate detection complete")
}
