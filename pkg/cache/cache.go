// Package cache stores build artifacts keyed by the content of the design
// that produced them.
//
// # Backends
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [MemoryCache]: an in-process map, for tests and the HTTP server
//   - [RedisCache]: a shared Redis instance
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: caching disabled
//
// [Open] picks a backend from a [Config].
//
// # Keys
//
// A [Keyer] derives keys from the hash of the design source and the options
// that influence an artifact, so a changed design or option never returns a
// stale result. [ScopedKeyer] prefixes keys to separate tenants or
// environments sharing one backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. Get reports a miss with
// ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Entry lifetimes.
const (
	// TTLArtifact is how long exported artifacts (GDS, JSON, DOT, SVG) live.
	TTLArtifact = 7 * 24 * time.Hour
	// TTLSummary is how long layout summaries live.
	TTLSummary = 24 * time.Hour
	// TTLBuild is how long the HTTP server keeps a build addressable.
	TTLBuild = time.Hour
)

// ArtifactKeyOpts are the options that change the bytes of an artifact.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Unit      float64 `json:"unit,omitempty"`
	Precision float64 `json:"precision,omitempty"`
	Detailed  bool    `json:"detailed,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// SummaryKey is the key of the layout summary of a design.
	SummaryKey(designHash string) string
	// ArtifactKey is the key of one exported artifact of a design.
	ArtifactKey(designHash string, opts ArtifactKeyOpts) string
	// BuildKey is the key of a server build record.
	BuildKey(id string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SummaryKey implements Keyer.
func (DefaultKeyer) SummaryKey(designHash string) string {
	return "summary:" + designHash
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(designHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", designHash, opts)
}

// BuildKey implements Keyer.
func (DefaultKeyer) BuildKey(id string) string {
	return "build:" + id
}

var _ Keyer = DefaultKeyer{}
