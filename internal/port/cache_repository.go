package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// AcquireLock sets key to token if it is not held, returns false if it is
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// ReleaseLock deletes key only while it still holds token
	ReleaseLock(ctx context.Context, key, token string) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// ClearIdempotency removes the key so the operation may be attempted again
	ClearIdempotency(ctx context.Context, key string) error
}
