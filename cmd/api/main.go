package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/johnquangdev/networking/docs"
	pkgvalidator "github.com/johnquangdev/networking/pkg/validator"

	"github.com/johnquangdev/networking/internal/adapter/handler"
	"github.com/johnquangdev/networking/internal/adapter/view"
	"github.com/johnquangdev/networking/internal/bootstrap"
	"github.com/johnquangdev/networking/internal/infrastructure/cache"
	"github.com/johnquangdev/networking/internal/infrastructure/external/oauth"
	httpmw "github.com/johnquangdev/networking/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/networking/internal/infrastructure/metrics"
	"github.com/johnquangdev/networking/internal/usecase/auth"
	"github.com/johnquangdev/networking/internal/usecase/contact"
	"github.com/johnquangdev/networking/internal/usecase/interaction"
	"github.com/johnquangdev/networking/pkg/config"
	"github.com/johnquangdev/networking/pkg/jwt"
)

// @title           Networking API
// @version         1.0
// @description     JSON endpoints of the personal networking assistant: interaction analyses, analysis jobs and contact status.

// @contact.name   API Support

// @BasePath  /v1/api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

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

	e := echo.New()
	e.Validator = pkgvalidator.New()
	renderer, err := view.NewRenderer()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}
	e.Renderer = renderer

	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))
	e.Use(metrics.EchoMiddleware())

	ctx := context.Background()
	infra, err := bootstrap.Open(ctx, cfg, cfg.Redis.Enabled, logger)
	if err != nil {
		logger.Fatal("failed to initialize infrastructure", zap.Error(err))
	}
	defer infra.Close(logger)
	repos := infra.Repos

	// Enqueue only; the LLM is called by cmd/worker
	analysisService := infra.Analysis(cfg, false, logger)

	var googleProvider auth.GoogleProvider
	if cfg.OAuth.Google.Enabled {
		googleProvider = oauth.NewGoogleProvider(
			cfg.OAuth.Google.ClientID,
			cfg.OAuth.Google.ClientSecret,
			cfg.OAuth.Google.RedirectURL,
		)
	} else {
		logger.Warn("google login disabled")
	}

	var stateStore oauth.Store
	if infra.Redis != nil {
		stateStore = cache.NewRedisStore(infra.Redis, logger)
	} else {
		// Without Redis nothing is queued for analysis and login state is per process
		logger.Warn("redis disabled, using in-memory oauth state")
		memoryStore := cache.NewMemoryStore(time.Minute)
		defer memoryStore.Close()
		stateStore = memoryStore
	}
	stateManager := oauth.NewStateManager(stateStore)
	jwtManager := jwt.NewManager(
		cfg.AccessSecret(),
		cfg.RefreshSecret(),
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	oauthService := auth.NewOAuthService(
		repos.Users,
		repos.Sessions,
		googleProvider,
		stateManager,
		jwtManager,
		logger,
	)
	sessions := httpmw.NewAuthMiddleware(oauthService, httpmw.CookieConfig{Secure: cfg.Server.SecureCookies}, logger)

	contactService := contact.NewService(repos.Contacts, repos.Emails, repos.Duplicates, logger)
	interactionService := interaction.NewService(repos.Interactions, repos.Contacts, analysisService, logger)

	var archive handler.ArchiveReader
	if infra.Storage != nil {
		archive = infra.Storage
	}

	api := handler.NewAPI(interactionService, contactService, repos.Jobs, logger)
	router := handler.NewRouter(
		cfg,
		handler.NewAuth(oauthService, sessions, cfg.Server.SecureCookies, logger),
		handler.NewContact(contactService, logger),
		handler.NewInteraction(interactionService, contactService, logger),
		api,
		handler.NewArchive(api, archive, logger),
		sessions,
		logger,
	)
	router.Setup(e)

	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment))

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped gracefully")
}
