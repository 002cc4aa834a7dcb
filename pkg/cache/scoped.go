package cache

// ScopedKeyer wraps a Keyer with a prefix so separate runs or projects can
// share one cache directory without key collisions.
//
// Example usage:
//
//	// Keys isolated to a single named project
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:course18:")
//
//	// Shared keys
//	globalKeyer := NewDefaultKeyer()
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

// StageKey generates a prefixed key for one stage run.
func (k *ScopedKeyer) StageKey(stage, inputHash string, opts any) string {
	return k.prefix + k.inner.StageKey(stage, inputHash, opts)
}
