package cache

import (
	"sync"
	"time"
)

// MemoryStore is an in-memory key-value store with expiration. It backs
// the OAuth state store when Redis is not available.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory store that sweeps expired keys every interval
func NewMemoryStore(interval time.Duration) *MemoryStore {
	store := &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if interval > 0 {
		go store.sweep(interval)
	}
	return store
}

// Set stores a key-value pair with expiration
func (ms *MemoryStore) Set(key string, value string, expiration time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.items[key] = memoryItem{value: value, expiresAt: ms.now().Add(expiration)}
}

// Get retrieves a value by key; expired keys are reported missing
func (ms *MemoryStore) Get(key string) (string, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, ok := ms.items[key]
	if !ok || ms.now().After(item.expiresAt) {
		return "", false
	}
	return item.value, true
}

// Delete removes a key
func (ms *MemoryStore) Delete(key string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, key)
}

// Len returns the number of stored keys, expired or not
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.items)
}

// Close stops the sweeper
func (ms *MemoryStore) Close() {
	ms.once.Do(func() { close(ms.stop) })
}

func (ms *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			ms.removeExpired()
		}
	}
}

func (ms *MemoryStore) removeExpired() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	for key, item := range ms.items {
		if now.After(item.expiresAt) {
			delete(ms.items, key)
		}
	}
}
