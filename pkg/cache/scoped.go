package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one backend without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "cablenet:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// CandidatesKey generates a prefixed candidate set key.
func (k *ScopedKeyer) CandidatesKey(instanceHash string, opts CandidatesKeyOpts) string {
	return k.prefix + k.inner.CandidatesKey(instanceHash, opts)
}

// SolutionKey generates a prefixed solution key.
func (k *ScopedKeyer) SolutionKey(instanceHash string, opts SolutionKeyOpts) string {
	return k.prefix + k.inner.SolutionKey(instanceHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(solutionHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(solutionHash, opts)
}
