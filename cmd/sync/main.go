package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/bootstrap"
	"github.com/johnquangdev/networking/internal/infrastructure/external/oauth"
	"github.com/johnquangdev/networking/internal/usecase/contact"
	"github.com/johnquangdev/networking/internal/usecase/googlesync"
	"github.com/johnquangdev/networking/pkg/config"
)

// sync imports Gmail and Calendar activity of every user that granted access
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

	if !cfg.OAuth.Google.Enabled {
		logger.Info("google integration disabled, nothing to sync")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, true, logger)
	if err != nil {
		logger.Fatal("failed to initialize infrastructure", zap.Error(err))
	}
	defer infra.Close(logger)
	repos := infra.Repos

	service := googlesync.NewService(googlesync.Deps{
		Users:        repos.Users,
		Google:       repos.Google,
		Interactions: repos.Interactions,
		Contacts:     repos.Contacts,
		Resolver:     contact.NewService(repos.Contacts, repos.Emails, repos.Duplicates, logger),
		Analysis:     infra.Analysis(cfg, false, logger),
		Tokens: oauth.NewGoogleProvider(
			cfg.OAuth.Google.ClientID,
			cfg.OAuth.Google.ClientSecret,
			cfg.OAuth.Google.RedirectURL,
		),
	}, cfg.Sync.PageSize, logger)

	if err := service.SyncAll(ctx); err != nil {
		logger.Error("google sync finished with errors", zap.Error(err))
		infra.Close(logger)
		os.Exit(1)
	}
	logger.Info("google sync complete")
}
