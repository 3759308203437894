package resolver

import "github.com/matzehuels/pipcore/pkg/core/deps"

// ConstraintSet maps a normalized package name to the constraint
// requirements that any resolved version of it must satisfy.
type ConstraintSet map[string][]deps.Requirement

// NewConstraintSet groups reqs by name.
func NewConstraintSet(reqs []deps.Requirement) ConstraintSet {
	c := make(ConstraintSet, len(reqs))
	for _, r := range reqs {
		c.Add(r)
	}
	return c
}

// Add appends a constraint for r.Name.
func (c ConstraintSet) Add(r deps.Requirement) {
	name := deps.NormalizeName(r.Name)
	c[name] = append(c[name], r)
}

// For returns the constraints registered for name.
func (c ConstraintSet) For(name string) []deps.Requirement {
	return c[deps.NormalizeName(name)]
}

// Allows reports whether version satisfies every constraint on name.
// Names without constraints allow any version.
func (c ConstraintSet) Allows(name, version string) bool {
	for _, r := range c.For(name) {
		if !r.SatisfiedBy(version) {
			return false
		}
	}
	return true
}
