package cache

import (
	"context"
	"time"

	"github.com/golang/snappy"
)

// CompressedCache wraps another cache with snappy compression. Snapshot
// and layout payloads are JSON and compress well; snappy keeps the
// encode/decode cost negligible next to a cache round trip.
type CompressedCache struct {
	inner Cache
}

// NewCompressedCache wraps inner with transparent compression.
func NewCompressedCache(inner Cache) Cache {
	return &CompressedCache{inner: inner}
}

// Get retrieves and decompresses a value. An entry that fails to decode
// is treated as a miss and evicted, mirroring how the file backend treats
// unreadable entries.
func (c *CompressedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.inner.Get(ctx, key)
	if err != nil || !hit {
		return nil, false, err
	}
	decoded, err := snappy.Decode(nil, data)
	if err != nil {
		_ = c.inner.Delete(ctx, key)
		return nil, false, nil
	}
	return decoded, true, nil
}

// Set compresses and stores a value.
func (c *CompressedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, key, snappy.Encode(nil, data), ttl)
}

// Delete removes a value.
func (c *CompressedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

// Close closes the underlying cache.
func (c *CompressedCache) Close() error {
	return c.inner.Close()
}

// Ensure CompressedCache implements Cache.
var _ Cache = (*CompressedCache)(nil)
