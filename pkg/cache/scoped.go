package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The API server scopes cache entries per scene so deleting a scene can
// never serve another scene's artifacts.
//
// Example usage:
//
//	// Scene-specific keys on the server
//	sceneKeyer := NewScopedKeyer(NewDefaultKeyer(), "scene:"+id.String()+":")
//
//	// Global keys for the CLI
//	cliKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// SnapshotKey generates a prefixed key for snapshot caching.
func (k *ScopedKeyer) SnapshotKey(source string) string {
	return k.prefix + k.inner.SnapshotKey(source)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(snapshotHash string, config any) string {
	return k.prefix + k.inner.LayoutKey(snapshotHash, config)
}

// FrameKey generates a prefixed key for frame caching.
func (k *ScopedKeyer) FrameKey(layoutHash string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(layoutHash, opts)
}
