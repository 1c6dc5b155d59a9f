package providers

import (
	"context"
)

// SnapshotVersionKey is the counter bumped on every committed mutation.
// The snapshot projector keys its cached projection on the current value,
// so stale snapshots expire by never being read again.
const SnapshotVersionKey = "flow:snapshot:version"

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Increment atomically increments a counter key and returns the new value.
	// Used as the snapshot invalidation version: every committed mutation
	// bumps it, so cached snapshots for older versions simply stop being read.
	Increment(ctx context.Context, key string) (int64, error)
}
