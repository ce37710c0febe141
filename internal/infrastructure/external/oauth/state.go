package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// Store is the key-value backend of the state manager (Redis or in-memory)
type Store interface {
	Set(key string, value string, expiration time.Duration)
	Get(key string) (string, bool)
	Delete(key string)
}

const stateValue = "valid"

// StateManager issues one-time OAuth state tokens for CSRF protection
type StateManager struct {
	store      Store
	expiration time.Duration
}

// NewStateManager creates a state manager whose tokens live for 15 minutes
func NewStateManager(store Store) *StateManager {
	return &StateManager{
		store:      store,
		expiration: 15 * time.Minute,
	}
}

func stateKey(state string) string {
	return fmt.Sprintf("oauth:state:%s", state)
}

// GenerateState generates a random state token and stores it
func (sm *StateManager) GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	sm.store.Set(stateKey(state), stateValue, sm.expiration)
	return state, nil
}

// ValidateState consumes a state token. Each token validates once.
func (sm *StateManager) ValidateState(state string) bool {
	if state == "" {
		return false
	}
	key := stateKey(state)
	value, ok := sm.store.Get(key)
	if !ok || value != stateValue {
		return false
	}
	sm.store.Delete(key)
	return true
}
