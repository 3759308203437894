package cache

import (
	"context"
	"time"
)

// Namespaced wraps a Cache and prefixes every key, so that several
// clients can share one backend without collisions:
//
//	pypi := cache.Namespaced(backend, "pypi:")
//	pypi.Set(ctx, "requests@latest", data, ttl) // key "pypi:requests@latest"
type Namespaced struct {
	inner  Cache
	prefix string
}

// NewNamespaced returns a view of inner whose keys carry prefix. A nil
// inner cache becomes a [NullCache].
func NewNamespaced(inner Cache, prefix string) *Namespaced {
	if inner == nil {
		inner = NewNullCache()
	}
	return &Namespaced{inner: inner, prefix: prefix}
}

// Prefix returns the key prefix.
func (n *Namespaced) Prefix() string { return n.prefix }

// Get reads prefix+key.
func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

// Set writes prefix+key.
func (n *Namespaced) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return n.inner.Set(ctx, n.prefix+key, data, ttl)
}

// Delete removes prefix+key.
func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

// Close closes the underlying cache.
func (n *Namespaced) Close() error { return n.inner.Close() }

var _ Cache = (*Namespaced)(nil)
