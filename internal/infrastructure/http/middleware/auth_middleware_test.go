package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/usecase/auth"
)

type fakeSessions struct {
	user      *entities.User
	access    string
	refresh   string
	refreshed int
}

func (f *fakeSessions) ValidateSession(_ context.Context, token string) (*entities.User, error) {
	if token == f.access {
		return f.user, nil
	}
	return nil, entities.ErrInvalidToken
}

func (f *fakeSessions) Refresh(_ context.Context, token string) (*auth.AuthResult, error) {
	if token != f.refresh {
		return nil, entities.ErrSessionNotFound
	}
	f.refreshed++
	return &auth.AuthResult{User: f.user, AccessToken: f.access, AccessExpiresAt: time.Now().Add(time.Hour)}, nil
}

func setup(t *testing.T) (*echo.Echo, *fakeSessions) {
	sessions := &fakeSessions{user: entities.NewUser("ada@example.com", "Ada"), access: "good", refresh: "r1"}
	m := NewAuthMiddleware(sessions, CookieConfig{}, zaptest.NewLogger(t))

	e := echo.New()
	ok := func(c echo.Context) error {
		user, found := GetUser(c)
		require.True(t, found)
		return c.String(http.StatusOK, user.Email)
	}
	e.GET("/api/me", ok, m.EchoAuth())
	e.GET("/contacts", ok, m.EchoPageAuth())
	return e, sessions
}

func TestEchoAuth_Bearer(t *testing.T) {
	e, _ := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", rec.Body.String())
}

func TestEchoAuth_RejectsMissingToken(t *testing.T) {
	e, _ := setup(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEchoAuth_RefreshesFromCookie(t *testing.T) {
	e, sessions := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "stale"})
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "r1"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sessions.refreshed)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), AccessTokenCookie+"=good")
}

func TestEchoPageAuth_RedirectsToLogin(t *testing.T) {
	e, _ := setup(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contacts?status=2", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath+"?next=%2Fcontacts%3Fstatus%3D2", rec.Header().Get("Location"))
}
