// Package cache provides content-addressed caching for pipeline stages.
//
// The pipeline caches at three levels, each keyed by a hash of everything
// that influences the artifact:
//   - snapshot: normalized snapshot JSON per source
//   - layout: solved positions per (snapshot hash, solver config)
//   - frame: render frames per (layout hash, viewport query)
//
// Backends implement [Cache]: file-based for the CLI, Redis for the
// server, null to disable. [NewCompressedCache] wraps any backend with
// snappy compression for large snapshot and layout payloads.
package cache

import (
	"context"
	"time"
)

// Default TTLs per key type. Content-addressed entries never go stale in
// the correctness sense, so TTLs only bound disk and memory growth.
const (
	// TTLHTTP bounds cached upstream HTTP responses.
	TTLHTTP = 15 * time.Minute

	// TTLSnapshot bounds cached normalized snapshots.
	TTLSnapshot = time.Hour

	// TTLLayout bounds cached solved positions. Solving is the expensive
	// stage, so layouts keep the longest TTL.
	TTLLayout = 24 * time.Hour

	// TTLFrame bounds cached frames. Frames are cheap to recompute and
	// numerous (one per viewport query), so they expire quickly.
	TTLFrame = 10 * time.Minute
)

// Cache is a byte-oriented cache with per-entry TTLs.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// the error is reserved for backend failures. A ttl of zero on Set means
// the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates cache keys for the pipeline stages. Implementations
// must be deterministic: the same inputs always produce the same key.
type Keyer interface {
	// HTTPKey generates a key for an upstream HTTP response.
	HTTPKey(namespace, key string) string

	// SnapshotKey generates a key for the normalized snapshot loaded from
	// a source (file path or URL).
	SnapshotKey(source string) string

	// LayoutKey generates a key for solved positions. config is the
	// solver configuration; any JSON-marshalable value works, and every
	// field participates in the key.
	LayoutKey(snapshotHash string, config any) string

	// FrameKey generates a key for a render frame.
	FrameKey(layoutHash string, opts FrameKeyOpts) string
}

// FrameKeyOpts carries the viewport query parameters that shape a frame.
type FrameKeyOpts struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Zoom float64 `json:"zoom"`
	Bias int     `json:"bias"`
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
// Format: http:namespace:key (human-readable for debugging).
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// SnapshotKey generates a key for snapshot caching.
func (k *DefaultKeyer) SnapshotKey(source string) string {
	return hashKey("snapshot", source)
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(snapshotHash string, config any) string {
	return hashKey("layout", snapshotHash, config)
}

// FrameKey generates a key for frame caching.
func (k *DefaultKeyer) FrameKey(layoutHash string, opts FrameKeyOpts) string {
	return hashKey("frame", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
