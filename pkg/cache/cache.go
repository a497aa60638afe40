// Package cache provides pluggable byte caches for pipeline results.
//
// Three implementations cover the deployment modes:
//   - FileCache: on-disk cache for CLI usage
//   - RedisCache: shared cache for server deployments
//   - NullCache: caching disabled
//
// Keys are derived from content hashes, so identical flow source, layout
// options, and render formats share entries across invocations. The Keyer
// interface generates keys per pipeline stage; ScopedKeyer adds a prefix
// when one backend serves several namespaces.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached pipeline results.
const (
	// DefaultTopologyTTL is how long parsed topologies stay cached.
	DefaultTopologyTTL = 24 * time.Hour

	// DefaultLayoutTTL is how long computed coordinates stay cached.
	DefaultLayoutTTL = 24 * time.Hour

	// DefaultArtifactTTL is how long rendered artifacts stay cached.
	DefaultArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented cache with TTL expiry.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// LayoutKeyOpts are the layout options that affect cached coordinates.
type LayoutKeyOpts struct {
	HSpacing   float64
	VSpacing   float64
	NodeWidth  float64
	NodeHeight float64
}

// ArtifactKeyOpts are the render options that affect cached artifacts.
type ArtifactKeyOpts struct {
	Format   string
	Graphviz bool
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// TopologyKey generates a key for a parsed topology.
	TopologyKey(sourceHash string) string

	// LayoutKey generates a key for computed coordinates.
	LayoutKey(topologyHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer derives keys from content hashes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TopologyKey generates a key for a parsed topology.
// The source hash already identifies the content, so no re-hashing.
func (k *DefaultKeyer) TopologyKey(sourceHash string) string {
	return "topology:" + sourceHash
}

// LayoutKey generates a key for computed coordinates.
func (k *DefaultKeyer) LayoutKey(topologyHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", topologyHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
