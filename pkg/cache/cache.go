// Package cache provides byte caches for rendered artifacts.
//
// Graphviz rendering is the slowest step of the pipeline, so rendered SVG
// and PNG output is cached by the hash of the DOT source that produced it.
// The CLI uses a [FileCache] under the XDG cache directory; tests and
// --no-cache runs use [NewNullCache].
//
// Artifact keys have the form "artifact:<variant>:<dot hash>", where the
// variant is the output format plus any render flags, e.g.
// "artifact:svg+detailed:3f1c...".
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TTLArtifact is how long rendered artifacts are kept.
const TTLArtifact = 7 * 24 * time.Hour

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value for key and whether it was found. A missing or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey returns the key for an artifact rendered from a DOT
	// source with the given hash.
	ArtifactKey(dotHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render settings that change artifact output.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
	Stack    bool   `json:"stack,omitempty"`
}

// Variant names the rendering an artifact key stands for: the format,
// followed by "+detailed" and "+stack" when those flags are set.
func (o ArtifactKeyOpts) Variant() string {
	v := o.Format
	if o.Detailed {
		v += "+detailed"
	}
	if o.Stack {
		v += "+stack"
	}
	return v
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey returns "artifact:<variant>:<dotHash>".
func (DefaultKeyer) ArtifactKey(dotHash string, opts ArtifactKeyOpts) string {
	return "artifact:" + opts.Variant() + ":" + dotHash
}

// Hash returns the hex SHA-256 of data. Artifact keys use it on DOT
// sources and [FileCache] on keys to name entry files.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewNullCache returns a cache that stores nothing, so every artifact is
// rendered again.
func NewNullCache() Cache { return nullCache{} }

type nullCache struct{}

func (nullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (nullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nullCache) Delete(context.Context, string) error                     { return nil }
func (nullCache) Close() error                                             { return nil }
