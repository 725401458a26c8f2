// Package cache provides a small byte cache used by the relay to serve
// repeated query results. Swappable between an in-process map and Redis.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under string keys with a TTL.
type Cache interface {
	// Get retrieves a value by key. Returns ErrMiss if not found.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error
}

// Error is a sentinel-friendly cache error type.
type Error string

func (e Error) Error() string { return string(e) }

// ErrMiss indicates the key was not found in the cache.
const ErrMiss Error = "cache miss"
