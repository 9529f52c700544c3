// Package httputil provides HTTP utilities for the snapshot source client.
//
// # Overview
//
// This package provides infrastructure used when snapshots are fetched
// over HTTP:
//
//   - [Cache]: File-based HTTP response caching
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores HTTP responses in the filesystem (~/.cache/gravitas/)
// with configurable TTL. This speeds up repeated loads of the same remote
// snapshot and keeps `view --watch` polite toward the upstream server.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 15*time.Minute)
//	ok, err := cache.Get("source:"+url, &snap) // Check cache
//	if !ok {
//	    snap = fetchFromURL(url)
//	    cache.Set("source:"+url, snap)         // Store for later
//	}
//
// Cache keys should be namespaced by source kind to avoid collisions.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// It uses exponential backoff to avoid hammering a struggling server:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetch(url)
//	})
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Cache directory: ~/.cache/gravitas/
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `gravitas cache clear` or by deleting the
// cache directory.
package httputil
