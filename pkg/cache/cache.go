// Package cache provides byte-level caching backends for registry
// metadata.
//
// The resolver keeps its own in-memory memo caches; this package caches
// HTTP responses across runs. Three backends implement [Cache]:
//
//   - [FileCache]: JSON files under a local directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for machines or CI runners
//     resolving against the same index
//   - [NullCache]: stores nothing, for --no-cache and tests
//
// Expired or undecodable entries are reported as misses, never as errors.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long cached registry responses stay fresh.
const DefaultTTL = 24 * time.Hour

// Cache stores opaque byte values under string keys.
//
// Get returns (nil, false, nil) on a miss. Implementations evict expired
// entries on read. All methods must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}
