package resolver

import (
	"context"

	"github.com/matzehuels/pipcore/pkg/core/deps"
)

// MetadataSource fetches the metadata of one release.
//
// selector is a concrete version, or [deps.SelectorLatest] for the newest
// release. The source performs no constraint filtering; the resolver
// checks versions itself. Fetch must be safe for concurrent use.
type MetadataSource interface {
	Fetch(ctx context.Context, name, selector string) (*deps.Package, error)
}

// SourceFunc adapts a function to [MetadataSource].
type SourceFunc func(ctx context.Context, name, selector string) (*deps.Package, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, name, selector string) (*deps.Package, error) {
	return f(ctx, name, selector)
}
