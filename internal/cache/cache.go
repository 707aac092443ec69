// Package cache provides the pluggable TTL cache used by the search,
// metadata and stream-link layers. Backends are best-effort: reads fall
// through to a miss and writes never fail the request.
package cache

import (
	"context"
	"time"
)

// Cache is the minimal contract the pipeline needs from a backend.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key for ttl. A ttl of 0 means the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes key.
	Delete(ctx context.Context, key string)
}
