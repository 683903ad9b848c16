package workspace

import (
	"context"
	"sync"
	"time"
)

// Cache is an in-process TTL cache over a workspace existence check. The
// recorder consults the check on every write, so a hot workspace would
// otherwise cost one store round trip per event.
//
// Only positive results are cached: a workspace created a moment ago must
// become visible to the recorder immediately, so misses always go through.
type Cache struct {
	next Checker
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]time.Time // workspace ID → expiry
}

// NewCache wraps next with a TTL existence cache. A ttl of 0 disables
// caching and every call passes through.
func NewCache(next Checker, ttl time.Duration) *Cache {
	return &Cache{
		next:    next,
		ttl:     ttl,
		entries: make(map[string]time.Time),
	}
}

// WorkspaceExists implements Checker.
func (c *Cache) WorkspaceExists(ctx context.Context, wsID string) (bool, error) {
	if c.ttl > 0 {
		c.mu.RLock()
		expiry, ok := c.entries[wsID]
		c.mu.RUnlock()
		if ok && time.Now().Before(expiry) {
			return true, nil
		}
	}

	exists, err := c.next.WorkspaceExists(ctx, wsID)
	if err != nil {
		return false, err
	}

	if exists && c.ttl > 0 {
		c.mu.Lock()
		c.entries[wsID] = time.Now().Add(c.ttl)
		c.mu.Unlock()
	}

	return exists, nil
}

// Invalidate drops a cached workspace, forcing the next check through.
func (c *Cache) Invalidate(wsID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, wsID)
}
