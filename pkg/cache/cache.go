// Package cache stores solver outputs keyed by a hash of the inputs that
// determine them.
//
// Solving a large instance to optimality can take minutes, while the result
// is fully determined by the coordinates and the solve options. The cache
// lets repeated CLI runs and API requests reuse earlier results.
//
// # Backends
//
//   - [FileCache]: JSON entries under a local directory (CLI default)
//   - [RedisCache]: shared entries in Redis (API servers)
//   - [NullCache]: caching disabled
//
// # Keys
//
// A [Keyer] builds keys from an instance hash plus the options of the stage
// being cached. [DefaultKeyer] hashes the options; [ScopedKeyer] prefixes
// every key so several deployments can share one Redis database.
package cache

import (
	"context"
	"time"
)

// TTLs for cached artifacts. Solutions are the most expensive to recompute.
const (
	TTLCandidates = 7 * 24 * time.Hour
	TTLSolution   = 30 * 24 * time.Hour
	TTLArtifact   = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key-value store with expiry.
type Cache interface {
	// Get returns the value stored under key. A miss is reported with
	// hit == false and a nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}
