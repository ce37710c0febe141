package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore map[string]string

func (m mapStore) Set(key, value string, _ time.Duration) { m[key] = value }

func (m mapStore) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapStore) Delete(key string) { delete(m, key) }

func TestStateManager_OneTimeUse(t *testing.T) {
	sm := NewStateManager(mapStore{})
	state, err := sm.GenerateState()
	require.NoError(t, err)

	assert.True(t, sm.ValidateState(state))
	assert.False(t, sm.ValidateState(state))
	assert.False(t, sm.ValidateState(""))
	assert.False(t, sm.ValidateState("forged"))
}

func TestGoogleProvider_AuthURL(t *testing.T) {
	p := NewGoogleProvider("client", "secret", "http://localhost/cb")
	u := p.GetAuthURL("xyz")
	assert.Contains(t, u, "state=xyz")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "gmail.readonly")
}
