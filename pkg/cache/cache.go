// Package cache provides response caching for the generative content
// provider.
//
// Provider calls are slow and cost money, and the same topic breakdown is
// frequently requested again (re-expanding a chapter, reloading a map).
// The cache stores serialized provider responses keyed by call kind and
// inputs, with a TTL.
//
// Backends:
//   - file: directory-based cache for CLI usage (default)
//   - redis: shared cache for server deployments
//   - null: caching disabled
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the default lifetime of a cached provider response.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is the interface all cache backends implement.
// Get returns (data, found, error); a miss is not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// =============================================================================
// Keyer
// =============================================================================

// Keyer generates cache keys for provider responses.
type Keyer interface {
	// ProviderKey generates a key for one provider call: the call kind
	// plus every input that determines the response.
	ProviderKey(kind string, parts ...string) string
}

// DefaultKeyer hashes call inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ProviderKey generates a key of the form "provider:<kind>:<sha256>".
func (DefaultKeyer) ProviderKey(kind string, parts ...string) string {
	return "provider:" + kind + ":" + hashKey(parts)
}

// ScopedKeyer wraps a Keyer with a prefix so multiple maps or tenants can
// share one backend without colliding.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ProviderKey generates a prefixed provider key.
func (k *ScopedKeyer) ProviderKey(kind string, parts ...string) string {
	return k.prefix + k.inner.ProviderKey(kind, parts...)
}
