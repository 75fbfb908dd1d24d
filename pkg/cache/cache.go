// Package cache stores rendered diagram artifacts.
//
// Rendering through Graphviz or an external converter is the slow part of
// exporting a diagram. Artifacts are keyed by a hash of the document JSON
// plus the render options, so an unchanged document is never laid out twice.
//
// Two backends are provided: [FileCache] for the CLI and [NullCache] for
// tests or when caching is disabled. [Fetch] wraps either with the
// registered [observability.CacheHooks].
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/linkboard/pkg/observability"
)

// DefaultTTL is how long rendered artifacts stay valid.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts lists every render option that changes the output bytes.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Engine     string  `json:"engine"`
	Detailed   bool    `json:"detailed,omitempty"`
	LabelField string  `json:"label_field,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
}

// DefaultKeyer produces "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey hashes the document hash together with the options.
func (DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", docHash, opts)
}

// Fetch returns the bytes stored under key, or calls build and stores its
// result. A failing cache read is treated as a miss and a failing write is
// ignored; only build errors are returned. keyType labels the hook events.
func Fetch(ctx context.Context, c Cache, key, keyType string, ttl time.Duration, build func() ([]byte, error)) ([]byte, bool, error) {
	hooks := observability.Cache()
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		hooks.OnCacheHit(ctx, keyType)
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, keyType)

	data, err := build()
	if err != nil {
		return nil, false, err
	}
	if err := c.Set(ctx, key, data, ttl); err == nil {
		hooks.OnCacheSet(ctx, keyType, len(data))
	}
	return data, false, nil
}
