package python

import (
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pipcore/pkg/core/deps"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
)

// PoetryLockFilename is the lock file written by Poetry.
const PoetryLockFilename = "poetry.lock"

type poetryLock struct {
	Packages []poetryPackage `toml:"package"`
}

type poetryPackage struct {
	Name           string         `toml:"name"`
	Version        string         `toml:"version"`
	Description    string         `toml:"description"`
	PythonVersions string         `toml:"python-versions"`
	Dependencies   map[string]any `toml:"dependencies"`
}

// ParsePoetryLock decodes poetry.lock content into packages sorted by
// normalized name. Only dependency names are kept: Poetry constraint
// syntax is not PEP 440, so each dependency becomes a bare requirement.
func ParsePoetryLock(data []byte) ([]*deps.Package, error) {
	var lock poetryLock
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "cannot parse poetry.lock")
	}

	out := make([]*deps.Package, 0, len(lock.Packages))
	for _, p := range lock.Packages {
		if p.Name == "" || p.Version == "" {
			continue
		}
		pkg := deps.NewPackage(p.Name, p.Version)
		pkg.Summary = p.Description
		if p.PythonVersions != "*" {
			pkg.RequiresPython = p.PythonVersions
		}
		for dep := range p.Dependencies {
			if strings.EqualFold(dep, "python") {
				continue
			}
			pkg.RequiresDist = append(pkg.RequiresDist, deps.NormalizeName(dep))
		}
		slices.Sort(pkg.RequiresDist)
		out = append(out, pkg)
	}
	slices.SortFunc(out, func(a, b *deps.Package) int {
		return strings.Compare(deps.NormalizeName(a.Name), deps.NormalizeName(b.Name))
	})
	return out, nil
}
