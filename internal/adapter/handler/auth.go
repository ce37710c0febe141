package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/errors"
	authDTO "github.com/johnquangdev/networking/internal/adapter/dto/auth"
	"github.com/johnquangdev/networking/internal/adapter/presenter"
	"github.com/johnquangdev/networking/internal/adapter/view"
	"github.com/johnquangdev/networking/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/networking/internal/usecase/auth"
)

// nextCookie remembers where to go after the Google round trip
const nextCookie = "login_next"

// AuthUsecase is the login flow used by the auth handler
type AuthUsecase interface {
	GetGoogleAuthURL() (url, state string, err error)
	HandleGoogleCallback(ctx context.Context, code, state, userAgent string) (*auth.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Auth handles authentication HTTP requests
type Auth struct {
	oauthService AuthUsecase
	sessions     *middleware.AuthMiddleware
	secure       bool
	logger       *zap.Logger
	now          func() time.Time
}

// NewAuth creates a new auth handler
func NewAuth(oauthService AuthUsecase, sessions *middleware.AuthMiddleware, secureCookies bool, logger *zap.Logger) *Auth {
	return &Auth{
		oauthService: oauthService,
		sessions:     sessions,
		secure:       secureCookies,
		logger:       logger,
		now:          time.Now,
	}
}

// LoginPage renders the sign-in page
// GET /auth/login
func (h *Auth) LoginPage(c echo.Context) error {
	target := "/auth/google/login"
	if next := safeRedirect(c.QueryParam("next"), ""); next != "" {
		target += "?next=" + url.QueryEscape(next)
	}
	return render(c, http.StatusOK, view.PageLogin, "Sign in", target)
}

// GoogleLogin handles the initial Google OAuth login request
// GET /auth/google/login
func (h *Auth) GoogleLogin(c echo.Context) error {
	authURL, _, err := h.oauthService.GetGoogleAuthURL()
	if err != nil {
		return renderError(h.logger, c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     nextCookie,
		Value:    safeRedirect(c.QueryParam("next"), "/"),
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	// Redirect to Google OAuth
	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GoogleCallback handles the OAuth callback from Google
// GET /auth/google/callback
func (h *Auth) GoogleCallback(c echo.Context) error {
	ctx := c.Request().Context()

	if reason := c.QueryParam("error"); reason != "" {
		return renderError(h.logger, c, errors.ErrOAuthFailed("Google", echo.NewHTTPError(http.StatusUnauthorized, reason)))
	}

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return renderError(h.logger, c, errors.ErrInvalidArgument("Missing code or state parameter"))
	}

	result, err := h.oauthService.HandleGoogleCallback(ctx, code, state, c.Request().UserAgent())
	if err != nil {
		return renderError(h.logger, c, err)
	}
	h.sessions.SetSessionCookies(c, result)

	next := "/"
	if ck, err := c.Cookie(nextCookie); err == nil {
		next = safeRedirect(ck.Value, "/")
	}
	c.SetCookie(&http.Cookie{Name: nextCookie, Path: "/auth", MaxAge: -1, HttpOnly: true})

	return c.Redirect(http.StatusFound, next)
}

// Logout revokes the session and clears its cookies
// POST /auth/logout
func (h *Auth) Logout(c echo.Context) error {
	if ck, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
		if err := h.oauthService.Logout(c.Request().Context(), ck.Value); err != nil && h.logger != nil {
			h.logger.Warn("failed to revoke session", zap.Error(err))
		}
	}
	h.sessions.ClearSessionCookies(c)
	return c.Redirect(http.StatusFound, middleware.LoginPath)
}

// RefreshToken refreshes the access token
// @Summary      Refresh the access token
// @Description  Issues a new access token for the refresh token in the body or the refresh cookie
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      authDTO.RefreshTokenRequest  false  "Refresh token"
// @Success      200      {object}  common.SuccessResponse{data=authDTO.SessionResponse}
// @Failure      401      {object}  common.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Auth) RefreshToken(c echo.Context) error {
	var req authDTO.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if req.RefreshToken == "" {
		if ck, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
			req.RefreshToken = ck.Value
		}
	}
	if req.RefreshToken == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Missing refresh token"))
	}

	result, err := h.oauthService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	h.sessions.SetSessionCookies(c, result)

	return HandleSuccess(h.logger, c, presenter.ToSessionResponse(result, h.now()))
}

// Me returns the current user information
// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.SuccessResponse{data=authDTO.UserResponse}
// @Failure      401  {object}  common.ErrorResponse
// @Router       /auth/me [get]
func (h *Auth) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToUserResponse(user))
}
