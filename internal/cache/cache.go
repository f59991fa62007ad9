// Package cache provides a TTL keyed read cache for idea data, with a
// Redis backend when configured and an in-process fallback otherwise.
package cache

import (
	"context"
	"time"
)

// DefaultTTL bounds how stale a cached read may be.
const DefaultTTL = 2 * time.Minute

// SweepInterval is how often the in-memory backend evicts expired entries.
const SweepInterval = 5 * time.Minute

// Store is a byte-oriented TTL cache. Get reports a miss for absent and
// expired keys alike; expired entries are evicted lazily on read and
// during periodic sweeps.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
	Close() error
}

// WithCache returns the cached value for key when fresh, otherwise runs
// fetcher, stores its result, and returns it. Concurrent callers for the
// same missing key each invoke fetcher; the last write wins.
func WithCache(ctx context.Context, store Store, key string, ttl time.Duration, fetcher func() ([]byte, error)) ([]byte, error) {
	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		return data, nil
	}
	data, err := fetcher()
	if err != nil {
		return nil, err
	}
	// Cache write failures never fail the read path.
	_ = store.Set(ctx, key, data, ttl)
	return data, nil
}
