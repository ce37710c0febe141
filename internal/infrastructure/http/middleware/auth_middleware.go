package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/usecase/auth"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	// UserKey and UserIDKey are the echo context keys of the authenticated user
	UserKey   = "user"
	UserIDKey = "user_id"

	LoginPath = "/auth/login"
)

// SessionValidator resolves tokens to users
type SessionValidator interface {
	ValidateSession(ctx context.Context, accessToken string) (*entities.User, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.AuthResult, error)
}

// CookieConfig controls the attributes of the session cookies
type CookieConfig struct {
	Secure bool
}

// AuthMiddleware authenticates API and page requests
type AuthMiddleware struct {
	sessions SessionValidator
	cookies  CookieConfig
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(sessions SessionValidator, cookies CookieConfig, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
	}
}

// EchoAuth protects JSON endpoints and answers 401 when no valid session exists
func (m *AuthMiddleware) EchoAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := m.authenticate(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}
			setUser(c, user)
			return next(c)
		}
	}
}

// EchoPageAuth protects HTML pages and redirects anonymous visitors to the login page
func (m *AuthMiddleware) EchoPageAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := m.authenticate(c)
			if err != nil {
				target := LoginPath + "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
				return c.Redirect(http.StatusFound, target)
			}
			setUser(c, user)
			return next(c)
		}
	}
}

// RequireRole checks if the authenticated user has one of the roles
func (m *AuthMiddleware) RequireRole(roles ...entities.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := GetUser(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// authenticate validates the access token, falling back to the refresh
// cookie. A successful refresh rotates the access cookie.
func (m *AuthMiddleware) authenticate(c echo.Context) (*entities.User, error) {
	ctx := c.Request().Context()

	if token := ExtractToken(c); token != "" {
		user, err := m.sessions.ValidateSession(ctx, token)
		if err == nil {
			return user, nil
		}
	}

	cookie, err := c.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return nil, entities.ErrUnauthorized
	}

	result, err := m.sessions.Refresh(ctx, cookie.Value)
	if err != nil {
		if m.logger != nil {
			m.logger.Debug("session refresh failed", zap.Error(err))
		}
		return nil, err
	}

	m.SetAccessCookie(c, result.AccessToken, result.AccessExpiresAt)
	return result.User, nil
}

// SetAccessCookie stores the access token cookie
func (m *AuthMiddleware) SetAccessCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(m.cookie(AccessTokenCookie, token, expiresAt))
}

// SetSessionCookies stores both session cookies
func (m *AuthMiddleware) SetSessionCookies(c echo.Context, result *auth.AuthResult) {
	m.SetAccessCookie(c, result.AccessToken, result.AccessExpiresAt)
	c.SetCookie(m.cookie(RefreshTokenCookie, result.RefreshToken, result.RefreshExpiresAt))
}

// ClearSessionCookies removes both session cookies
func (m *AuthMiddleware) ClearSessionCookies(c echo.Context) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		ck := m.cookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func (m *AuthMiddleware) cookie(name, value string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   m.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func setUser(c echo.Context, user *entities.User) {
	c.Set(UserKey, user)
	c.Set(UserIDKey, user.ID)
}

// GetUser returns the authenticated user of the request
func GetUser(c echo.Context) (*entities.User, bool) {
	user, ok := c.Get(UserKey).(*entities.User)
	return user, ok && user != nil
}

// GetUserID returns the id of the authenticated user
func GetUserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(UserIDKey).(uuid.UUID)
	return id, ok
}

// ExtractToken reads a bearer token from the Authorization header or the access cookie
func ExtractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
