// Package kv caches terminal job results in a key-value store. A job's
// phase never reverts once terminal, so a cached result stays valid until
// its TTL evicts it and repeated polls can skip the backend entirely.
package kv

import (
	"context"
	"time"
)

// Store is the minimal surface the result cache needs. Keys are strings,
// values are byte slices, and every write carries a TTL (zero means no
// expiry).
type Store interface {
	// Set stores a value with the given key and TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key. Returns ErrNotFound when the key is
	// absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close closes the connection to the store.
	Close() error
}
