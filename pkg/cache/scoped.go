package cache

// ScopedKeyer prefixes every key from an inner Keyer. Several flowviz
// instances pointed at one Redis stay isolated by giving each a scope
// (the cache.scope config setting or FLOWVIZ_CACHE_SCOPE).
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner so every generated key carries prefix.
// A nil inner uses the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) TopologyKey(sourceHash string) string {
	return k.prefix + k.inner.TopologyKey(sourceHash)
}

func (k *ScopedKeyer) LayoutKey(topologyHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(topologyHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
