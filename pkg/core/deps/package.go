package deps

import (
	"slices"
	"strings"
)

// Package holds metadata for one concrete release, as produced by a
// metadata source.
type Package struct {
	Name           string   `json:"name"`                      // Registry display name
	Version        string   `json:"version"`                   // Concrete release version
	Summary        string   `json:"summary,omitempty"`         // Short description
	RequiresPython string   `json:"requires_python,omitempty"` // Interpreter constraint, verbatim
	RequiresDist   []string `json:"requires_dist,omitempty"`   // Raw dependency requirement strings
	Classifiers    []string `json:"classifiers,omitempty"`     // Trove classifiers
	License        string   `json:"license,omitempty"`
	Author         string   `json:"author,omitempty"`
	HomePage       string   `json:"home_page,omitempty"`
}

// NewPackage creates a package with the given name, version and raw
// dependency strings.
func NewPackage(name, version string, requiresDist ...string) *Package {
	return &Package{Name: name, Version: version, RequiresDist: requiresDist}
}

// Key returns the memoization key "name==version" with the name
// normalized.
func (p *Package) Key() string {
	return Key(p.Name, p.Version)
}

// Key builds the "name==version" key used by the resolver caches and the
// candidate selector.
func Key(name, version string) string {
	return NormalizeName(name) + "==" + strings.TrimSpace(version)
}

// Clone returns a deep copy of p.
func (p *Package) Clone() *Package {
	if p == nil {
		return nil
	}
	c := *p
	c.RequiresDist = slices.Clone(p.RequiresDist)
	c.Classifiers = slices.Clone(p.Classifiers)
	return &c
}
