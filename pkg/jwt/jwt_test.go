package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AccessTokenRoundTrip(t *testing.T) {
	m := NewManager("access", "refresh", time.Hour, 24*time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "ada@example.com", "Ada", "member")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestManager_RefreshTokenNotValidAsAccess(t *testing.T) {
	m := NewManager("access", "refresh", time.Hour, 24*time.Hour)
	userID := uuid.New()

	refresh, err := m.GenerateRefreshToken(userID)
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	got, err := m.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestManager_Expired(t *testing.T) {
	m := NewManager("access", "refresh", time.Minute, time.Hour)
	token, err := m.GenerateAccessToken(uuid.New(), "a@b.c", "", "member")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestHashToken(t *testing.T) {
	a, err := HashToken("token")
	require.NoError(t, err)
	b, _ := HashToken("token")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	_, err = HashToken("")
	assert.Error(t, err)
}
