package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/infrastructure/external/oauth"
	"github.com/johnquangdev/networking/pkg/jwt"
)

type fakeUsers struct {
	byID map[uuid.UUID]*entities.User
}

func (f *fakeUsers) Create(_ context.Context, u *entities.User) error {
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, entities.ErrUserNotFound
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (f *fakeUsers) FindByOAuth(_ context.Context, provider, id string) (*entities.User, error) {
	for _, u := range f.byID {
		if u.OAuthProvider != nil && *u.OAuthProvider == provider && u.OAuthID != nil && *u.OAuthID == id {
			return u, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (f *fakeUsers) Update(_ context.Context, u *entities.User) error {
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) UpdateOAuthToken(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

func (f *fakeUsers) ListWithGoogleToken(context.Context) ([]*entities.User, error) { return nil, nil }

func (f *fakeUsers) ListActive(context.Context) ([]*entities.User, error) { return nil, nil }

type fakeSessions struct {
	byHash map[string]*entities.Session
}

func (f *fakeSessions) Create(_ context.Context, s *entities.Session) error {
	f.byHash[s.RefreshTokenHash] = s
	return nil
}

func (f *fakeSessions) FindByID(_ context.Context, id uuid.UUID) (*entities.Session, error) {
	for _, s := range f.byHash {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, entities.ErrSessionNotFound
}

func (f *fakeSessions) FindByTokenHash(_ context.Context, hash string) (*entities.Session, error) {
	if s, ok := f.byHash[hash]; ok && s.RevokedAt == nil {
		return s, nil
	}
	return nil, entities.ErrSessionNotFound
}

func (f *fakeSessions) UpdateLastUsed(context.Context, uuid.UUID) error { return nil }

func (f *fakeSessions) Revoke(ctx context.Context, id uuid.UUID) error {
	s, err := f.FindByID(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	s.RevokedAt = &now
	return nil
}

func (f *fakeSessions) DeleteExpired(context.Context, time.Time) error { return nil }

type fakeGoogle struct {
	info  *oauth.GoogleUserInfo
	token *oauth2.Token
}

func (f *fakeGoogle) GetAuthURL(state string) string { return "https://accounts.google.com/o?state=" + state }

func (f *fakeGoogle) ExchangeCode(context.Context, string) (*oauth2.Token, error) { return f.token, nil }

func (f *fakeGoogle) GetUserInfo(context.Context, *oauth2.Token) (*oauth.GoogleUserInfo, error) {
	return f.info, nil
}

type memStore map[string]string

func (m memStore) Set(k, v string, _ time.Duration) { m[k] = v }

func (m memStore) Get(k string) (string, bool) {
	v, ok := m[k]
	return v, ok
}

func (m memStore) Delete(k string) { delete(m, k) }

func newService(t *testing.T) (*OAuthService, *fakeUsers, *fakeSessions) {
	users := &fakeUsers{byID: map[uuid.UUID]*entities.User{}}
	sessions := &fakeSessions{byHash: map[string]*entities.Session{}}
	google := &fakeGoogle{
		info:  &oauth.GoogleUserInfo{ID: "g-1", Email: "ada@example.com", Name: "Ada"},
		token: &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)},
	}
	svc := NewOAuthService(users, sessions, google, oauth.NewStateManager(memStore{}),
		jwt.NewManager("a", "r", time.Hour, 24*time.Hour), zaptest.NewLogger(t))
	return svc, users, sessions
}

func TestHandleGoogleCallback_CreatesUserAndSession(t *testing.T) {
	svc, users, sessions := newService(t)
	ctx := context.Background()

	_, state, err := svc.GetGoogleAuthURL()
	require.NoError(t, err)

	res, err := svc.HandleGoogleCallback(ctx, "code", state, "test-agent")
	require.NoError(t, err)
	require.Len(t, users.byID, 1)
	require.Len(t, sessions.byHash, 1)

	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.True(t, res.User.HasGoogleToken())
	assert.NotEmpty(t, res.AccessToken)

	user, err := svc.ValidateSession(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)
}

func TestHandleGoogleCallback_RejectsReusedState(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, state, err := svc.GetGoogleAuthURL()
	require.NoError(t, err)
	_, err = svc.HandleGoogleCallback(ctx, "code", state, "")
	require.NoError(t, err)

	_, err = svc.HandleGoogleCallback(ctx, "code", state, "")
	assert.ErrorIs(t, err, entities.ErrOAuthStateMismatch)
}

func TestRefreshAndLogout(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, state, _ := svc.GetGoogleAuthURL()
	res, err := svc.HandleGoogleCallback(ctx, "code", state, "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	require.NoError(t, svc.Logout(ctx, res.RefreshToken))
	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)

	assert.NoError(t, svc.Logout(ctx, res.RefreshToken))
}

func TestValidateSession_InvalidToken(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.ValidateSession(context.Background(), "garbage")
	assert.ErrorIs(t, err, entities.ErrInvalidToken)
}
