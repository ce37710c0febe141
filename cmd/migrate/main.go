package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/bootstrap"
	"github.com/johnquangdev/networking/internal/infrastructure/database"
	"github.com/johnquangdev/networking/pkg/config"
)

func main() {
	down := flag.Bool("down", false, "roll back the migrations instead of applying them")
	flag.Parse()

	_ = godotenv.Load()

	// Migrations need only the database settings
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = database.CloseDB(db) }()

	direction := migrate.Up
	if *down {
		direction = migrate.Down
	}

	n, err := database.Migrate(db, direction, logger)
	if err != nil {
		logger.Error("migration failed", zap.Error(err))
		_ = database.CloseDB(db)
		os.Exit(1)
	}
	logger.Info("migrations done", zap.Int("applied", n), zap.Bool("down", *down))
}
