package cache

// ScopedKeyer prefixes every key of an inner keyer, so several deployments
// or users can share one backend:
//
//	keyer := cache.NewScopedKeyer(nil, "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer if inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SummaryKey implements Keyer.
func (k *ScopedKeyer) SummaryKey(designHash string) string {
	return k.prefix + k.inner.SummaryKey(designHash)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(designHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(designHash, opts)
}

// BuildKey implements Keyer.
func (k *ScopedKeyer) BuildKey(id string) string {
	return k.prefix + k.inner.BuildKey(id)
}
