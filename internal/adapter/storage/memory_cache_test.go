package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Contract(t *testing.T) {
	runCacheContract(t, NewMemoryCache(), "")
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }

	ok, err := cache.AcquireLock(ctx, "lock:patron:000111", "a", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(9 * time.Second)
	ok, _ = cache.AcquireLock(ctx, "lock:patron:000111", "b", 10*time.Second)
	assert.False(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = cache.AcquireLock(ctx, "lock:patron:000111", "b", 10*time.Second)
	assert.True(t, ok)

	// the expired owner cannot release the new holder's lock
	require.NoError(t, cache.ReleaseLock(ctx, "lock:patron:000111", "a"))
	ok, _ = cache.AcquireLock(ctx, "lock:patron:000111", "c", 10*time.Second)
	assert.False(t, ok)
}
