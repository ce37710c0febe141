package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/adapter/dto/common"
	"github.com/johnquangdev/networking/internal/adapter/view"
	"github.com/johnquangdev/networking/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/networking/pkg/config"
	"github.com/johnquangdev/networking/pkg/flash"
)

// APIPrefix is the path prefix of the JSON endpoints
const APIPrefix = "/v1/api"

// Router holds all handlers
type Router struct {
	cfg          *config.Config
	auth         *Auth
	contacts     *Contact
	interactions *Interaction
	api          *API
	archive      *Archive
	sessions     *middleware.AuthMiddleware
	logger       *zap.Logger
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	auth *Auth,
	contacts *Contact,
	interactions *Interaction,
	api *API,
	archive *Archive,
	sessions *middleware.AuthMiddleware,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:          cfg,
		auth:         auth,
		contacts:     contacts,
		interactions: interactions,
		api:          api,
		archive:      archive,
		sessions:     sessions,
		logger:       logger,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.HTTPErrorHandler = rt.ErrorHandler
	e.Use(flash.Middleware(flash.NewStore([]byte(rt.cfg.Server.SecretKey), rt.cfg.Server.SecureCookies)))

	// Public endpoints
	e.GET("/health", rt.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.StaticFS("/static", view.Static())

	rt.setupAuthRoutes(e)
	rt.setupPageRoutes(e)
	rt.setupAPIRoutes(e.Group(APIPrefix))
}

// setupAuthRoutes configures the login flow
func (rt *Router) setupAuthRoutes(e *echo.Echo) {
	authGroup := e.Group("/auth")

	authGroup.GET("/login", rt.auth.LoginPage)
	authGroup.GET("/google/login", rt.auth.GoogleLogin)
	authGroup.GET("/google/callback", rt.auth.GoogleCallback)
	authGroup.POST("/logout", rt.auth.Logout)
}

// setupPageRoutes configures the HTML pages, all behind the session check
func (rt *Router) setupPageRoutes(e *echo.Echo) {
	pageAuth := rt.sessions.EchoPageAuth()

	e.GET("/", rt.contacts.Dashboard, pageAuth)

	contacts := e.Group("/contacts", pageAuth)
	contacts.GET("", rt.contacts.List)
	contacts.GET("/new", rt.contacts.New)
	contacts.POST("", rt.contacts.Create)
	contacts.GET("/:id", rt.contacts.Detail)
	contacts.GET("/:id/edit", rt.contacts.Edit)
	contacts.POST("/:id/edit", rt.contacts.Update)
	contacts.GET("/:id/delete", rt.contacts.ConfirmDelete)
	contacts.POST("/:id/delete", rt.contacts.Delete)
	contacts.GET("/:id/emails", rt.contacts.Emails)
	contacts.POST("/:id/touchpoint", rt.interactions.Touchpoint)

	emails := e.Group("/emails", pageAuth)
	emails.GET("/:id/delete", rt.contacts.ConfirmDeleteEmail)
	emails.POST("/:id/delete", rt.contacts.DeleteEmail)

	interactions := e.Group("/interactions", pageAuth)
	interactions.GET("", rt.interactions.List)
	interactions.GET("/new", rt.interactions.New)
	interactions.POST("", rt.interactions.Create)
	interactions.GET("/:id", rt.interactions.Detail)
}

// setupAPIRoutes configures the JSON API
func (rt *Router) setupAPIRoutes(g *echo.Group) {
	g.POST("/auth/refresh", rt.auth.RefreshToken)

	apiAuth := rt.sessions.EchoAuth()
	g.GET("/auth/me", rt.auth.Me, apiAuth)
	g.GET("/interactions/:id/analysis", rt.api.GetAnalysis, apiAuth)
	g.GET("/interactions/:id/analysis/job", rt.api.GetAnalysisJob, apiAuth)
	g.GET("/interactions/:id/analysis/raw", rt.archive.GetRawReply, apiAuth)
	g.GET("/contacts/:id/status", rt.api.GetContactStatus, apiAuth)
}

// ErrorHandler answers JSON for API paths and renders the error page otherwise
func (rt *Router) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if strings.HasPrefix(c.Request().URL.Path, APIPrefix) {
		if herr := HandleError(rt.logger, c, err); herr != nil && rt.logger != nil {
			rt.logger.Error("failed to write error response", zap.Error(herr))
		}
		return
	}

	if rerr := renderError(rt.logger, c, err); rerr != nil {
		if rt.logger != nil {
			rt.logger.Error("failed to render error page", zap.Error(rerr))
		}
		if !c.Response().Committed {
			_ = c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}
	}
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, common.HealthResponse{
		Status:      "ok",
		Environment: rt.cfg.Server.Environment,
	})
}
