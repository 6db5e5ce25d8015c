package wallet

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/crypto"
)

const unlockCacheTTL = 15 * time.Minute

// unlockCache holds a derived AEAD key per session_id with a TTL, per spec
// §4.6 ("store the key in the session-scoped cache under session_id with
// TTL"). Keys are zeroed on eviction and on explicit Lock.
type unlockCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]cacheEntry
}

type cacheEntry struct {
	key       []byte
	expiresAt time.Time
}

func newUnlockCache() *unlockCache {
	return &unlockCache{entries: map[uuid.UUID]cacheEntry{}}
}

func (c *unlockCache) Put(sessionID uuid.UUID, key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(sessionID)
	c.entries[sessionID] = cacheEntry{key: key, expiresAt: time.Now().Add(unlockCacheTTL)}
}

// Get returns the cached key iff present and unexpired. The returned slice
// is the cache's own copy; callers must not retain it past the call that
// uses it and must not zero it themselves (the cache owns its lifetime).
func (c *unlockCache) Get(sessionID uuid.UUID) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sessionID]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.evictLocked(sessionID)
		return nil, false
	}
	return e.key, true
}

// Lock evicts the cached key for a session, the explicit "lock" transition
// of the wallet state machine (spec §4.6).
func (c *unlockCache) Lock(sessionID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(sessionID)
}

func (c *unlockCache) evictLocked(sessionID uuid.UUID) {
	if e, ok := c.entries[sessionID]; ok {
		crypto.Zero(e.key)
		delete(c.entries, sessionID)
	}
}
