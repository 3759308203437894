package python

import (
	"context"
	"errors"

	"github.com/matzehuels/pipcore/pkg/core/deps"
	"github.com/matzehuels/pipcore/pkg/core/resolver"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
	"github.com/matzehuels/pipcore/pkg/integrations"
	"github.com/matzehuels/pipcore/pkg/integrations/pypi"
)

var _ resolver.MetadataSource = (*Source)(nil)

// Source fetches release metadata from a PyPI-compatible index.
type Source struct {
	client  *pypi.Client
	refresh bool
}

// NewSource wraps client. When refresh is true every fetch bypasses the
// client's response cache.
func NewSource(client *pypi.Client, refresh bool) *Source {
	return &Source{client: client, refresh: refresh}
}

// Fetch implements [resolver.MetadataSource].
func (s *Source) Fetch(ctx context.Context, name, selector string) (*deps.Package, error) {
	if err := perrors.ValidatePythonPackageName(name); err != nil {
		return nil, err
	}
	pkg, err := s.client.FetchPackage(ctx, name, selector, s.refresh)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, perrors.Wrap(perrors.ErrCodePackageNotFound, err, "package %s (%s) not found", name, selector)
		}
		if errors.Is(err, integrations.ErrNetwork) {
			return nil, perrors.Wrap(perrors.ErrCodeNetwork, err, "fetching %s", name)
		}
		return nil, err
	}
	return pkg, nil
}
