// Package cache provides stage-result caching for the conversion pipeline.
// Each pipeline stage hashes its input document plus its options into a
// cache key, so reruns with unchanged inputs reuse the stored artifact.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind. Stage artifacts are pure functions of their
// inputs, so the TTL mostly bounds disk growth rather than staleness.
const (
	TTLStage    = 7 * 24 * time.Hour
	TTLArtifact = 30 * 24 * time.Hour
)

// Cache stores opaque byte payloads under string keys.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer derives cache keys for pipeline stages.
type Keyer interface {
	// StageKey builds a key for one stage run from the stage name, the
	// hash of the stage's input document, and the stage's options. Any
	// JSON-serializable options value works; differing options must
	// yield differing keys.
	StageKey(stage, inputHash string, opts any) string
}

// DefaultKeyer generates keys of the form "stage:<name>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// StageKey hashes the input hash together with the options.
func (k *DefaultKeyer) StageKey(stage, inputHash string, opts any) string {
	return hashKey("stage:"+stage, inputHash, opts)
}
