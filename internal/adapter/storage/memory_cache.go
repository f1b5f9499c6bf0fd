package storage

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is the single-process counterpart of RedisAdapter.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) setNX(key, value string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && (e.expiresAt.IsZero() || now.Before(e.expiresAt)) {
		return false
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	c.entries[key] = cacheEntry{value: value, expiresAt: expiresAt}
	return true
}

func (c *MemoryCache) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return c.setNX(key, token, ttl), nil
}

func (c *MemoryCache) ReleaseLock(ctx context.Context, key, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.value == token {
		delete(c.entries, key)
	}
	return nil
}

func (c *MemoryCache) SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.setNX(key, "1", ttl), nil
}

func (c *MemoryCache) ClearIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}
