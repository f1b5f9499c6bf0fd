package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/port"
)

// runCacheContract checks lock ownership and idempotency keys. prefix keeps
// keys from different runs apart.
func runCacheContract(t *testing.T, cache port.CacheRepository, prefix string) {
	ctx := context.Background()

	t.Run("lock is exclusive", func(t *testing.T) {
		key := prefix + "lock:book:1"

		ok, err := cache.AcquireLock(ctx, key, "token-a", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = cache.AcquireLock(ctx, key, "token-b", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		// only the owner can release
		require.NoError(t, cache.ReleaseLock(ctx, key, "token-b"))
		ok, err = cache.AcquireLock(ctx, key, "token-b", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, cache.ReleaseLock(ctx, key, "token-a"))
		ok, err = cache.AcquireLock(ctx, key, "token-b", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, cache.ReleaseLock(ctx, key, "token-b"))
	})

	t.Run("idempotency key", func(t *testing.T) {
		key := prefix + "payment:000111:1:7"

		ok, err := cache.SetIdempotency(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = cache.SetIdempotency(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, cache.ClearIdempotency(ctx, key))
		ok, err = cache.SetIdempotency(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, cache.ClearIdempotency(ctx, key))
	})
}
