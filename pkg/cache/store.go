// Package cache keeps repeated lookups during resolution idempotent and cheap.
//
// # Layout
//
// A [Cache] exposes three independent mappings:
//
//   - [Cache.Indexes]: raw project index listings, keyed by project and index
//   - [Cache.Metadata]: raw core metadata, keyed by artifact URI and content hash
//   - [Cache.Graphs]: serialized resolved graphs, keyed by root set and environment
//
// Each [Mapping] sits on a [Store]. [Mapping.Load] runs at most one fetch per
// key at a time: concurrent callers asking for the same key share the result
// of the in-flight fetch. Failed fetches are never stored.
//
// # Stores
//
//   - [MemoryStore]: process-lifetime map, the default
//   - [NullStore]: stores nothing, every lookup misses
//   - [FileStore]: one JSON file per key under a directory, with TTL
//   - [RedisStore]: shared Redis instance, with TTL
//
// The core never evicts. Eviction, if any, is a property of the store.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by helpers that need to distinguish a miss from
// an empty value.
var ErrCacheMiss = errors.New("cache miss")

// Store is a byte-oriented key/value backend.
type Store interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the store.
	Close() error
}

// Clearer is implemented by stores that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}
