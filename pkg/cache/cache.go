// Package cache provides byte caches shared by the pipeline, the avatar
// fetcher and the HTTP server.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON entries under a directory, used by the CLI.
//   - [RedisCache]: a Redis server, used by `familytree serve` when several
//     instances share work.
//   - [NullCache]: stores nothing, for --no-cache and tests.
//
// Keys are built by a [Keyer] so every consumer hashes the same inputs the
// same way. [Instrument] wraps any cache with observability hooks.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values by key.
type Cache interface {
	// Get returns the value for key and whether it was found. A miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop all their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Default time-to-live values per entry kind.
const (
	TTLAvatar   = 7 * 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)
