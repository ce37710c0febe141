// Package bootstrap wires the infrastructure shared by the binaries under cmd/.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/networking/internal/adapter/repository"
	"github.com/johnquangdev/networking/internal/infrastructure/cache"
	"github.com/johnquangdev/networking/internal/infrastructure/database"
	"github.com/johnquangdev/networking/internal/infrastructure/queue"
	"github.com/johnquangdev/networking/internal/infrastructure/storage"
	"github.com/johnquangdev/networking/internal/usecase/analysis"
	"github.com/johnquangdev/networking/pkg/config"
	"github.com/johnquangdev/networking/pkg/llm"
)

// NewLogger returns a production logger in production and a development logger otherwise
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Repositories groups the gorm repositories
type Repositories struct {
	Users        *repository.UserRepository
	Sessions     *repository.SessionRepository
	Contacts     *repository.ContactRepository
	Emails       *repository.EmailAddressRepository
	Duplicates   *repository.DuplicateRepository
	Interactions *repository.InteractionRepository
	Analyses     *repository.AnalysisRepository
	Jobs         *repository.AnalysisJobRepository
	Google       *repository.GoogleRepository
}

// NewRepositories creates every repository on db
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:        repository.NewUserRepository(db),
		Sessions:     repository.NewSessionRepository(db),
		Contacts:     repository.NewContactRepository(db),
		Emails:       repository.NewEmailAddressRepository(db),
		Duplicates:   repository.NewDuplicateRepository(db),
		Interactions: repository.NewInteractionRepository(db),
		Analyses:     repository.NewAnalysisRepository(db),
		Jobs:         repository.NewAnalysisJobRepository(db),
		Google:       repository.NewGoogleRepository(db),
	}
}

// Infra holds the open connections of a process
type Infra struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Storage *storage.MinIOClient // nil when storage is disabled
	Repos   *Repositories
}

// Open connects to Postgres, Redis and, when enabled, MinIO.
// Redis is skipped when withRedis is false.
func Open(ctx context.Context, cfg *config.Config, withRedis bool, logger *zap.Logger) (*Infra, error) {
	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	infra := &Infra{DB: db, Repos: NewRepositories(db)}

	if cfg.Database.AutoMigrate {
		if cfg.IsProduction() {
			infra.Close(logger)
			return nil, fmt.Errorf("DB_AUTO_MIGRATE is enabled in production, run cmd/migrate instead")
		}
		if _, err := database.Migrate(db, migrate.Up, logger); err != nil {
			infra.Close(logger)
			return nil, err
		}
	}

	if withRedis {
		infra.Redis, err = cache.NewRedisClient(ctx, cfg)
		if err != nil {
			infra.Close(logger)
			return nil, err
		}
		logger.Info("redis connected", zap.String("addr", cfg.GetRedisAddr()))
	}

	if cfg.Storage.Enabled {
		infra.Storage, err = storage.NewMinIOClient(ctx, cfg.Storage)
		if err != nil {
			infra.Close(logger)
			return nil, err
		}
		logger.Info("object storage connected",
			zap.String("endpoint", cfg.Storage.Endpoint),
			zap.String("bucket", cfg.Storage.BucketName))
	}

	return infra, nil
}

// Analysis builds the analysis service. Enqueueing needs Redis; the LLM
// client is only created when needed by workers.
func (i *Infra) Analysis(cfg *config.Config, withCompleter bool, logger *zap.Logger) analysis.Service {
	var q analysis.Queue
	if i.Redis != nil {
		q = queue.NewRedisQueue(i.Redis, cfg.Analysis.QueueName)
	}
	var completer llm.Completer
	if withCompleter {
		completer = llm.NewAnthropicClient(cfg.Anthropic)
	}
	var archive analysis.Archiver
	if i.Storage != nil {
		archive = i.Storage
	}

	return analysis.NewAnalysisService(
		i.Repos.Interactions,
		i.Repos.Analyses,
		i.Repos.Jobs,
		q,
		completer,
		archive,
		cfg.Analysis,
		logger,
	)
}

// Close releases the connections
func (i *Infra) Close(logger *zap.Logger) {
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if err := database.CloseDB(i.DB); err != nil {
		logger.Warn("failed to close database", zap.Error(err))
	}
}
