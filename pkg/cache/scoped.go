package cache

// ScopedKeyer wraps a Keyer with a prefix so that several caches can share
// one directory. The debug server scopes its keys by session so artifacts
// rendered for a live context never collide with CLI runs.
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "serve:"+sessionID+":")
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

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(dotHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(dotHash, opts)
}
