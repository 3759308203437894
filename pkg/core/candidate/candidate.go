// Package candidate tracks already-installed releases and chooses between
// competing candidates for the same requirement.
//
// A [Selector] is long-lived and caller-managed: installed releases are
// registered before resolution and consulted afterwards to decide which
// resolved packages can be reused instead of reinstalled.
package candidate

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/pipcore/pkg/core/deps"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
)

// Candidate pairs a release with its installation state.
type Candidate struct {
	Package   *deps.Package `json:"package"`
	Installed bool          `json:"installed"`
	Editable  bool          `json:"editable"`
	LinkURL   string        `json:"link_url,omitempty"` // Empty when installed from an index
}

// Strategy decides how [Selector.SelectBest] picks among candidates.
type Strategy int

const (
	// PreferInstalled picks the first installed candidate, else the first.
	PreferInstalled Strategy = iota
	// PreferLatest picks the highest version.
	PreferLatest
	// PreferCompatible picks an installed candidate, else the highest version.
	PreferCompatible
)

var strategyNames = [...]string{
	PreferInstalled:  "prefer-installed",
	PreferLatest:     "prefer-latest",
	PreferCompatible: "prefer-compatible",
}

// String returns the strategy's flag name.
func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a flag name such as "prefer-latest" to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if strings.EqualFold(name, n) {
			return Strategy(i), nil
		}
	}
	return 0, perrors.New(perrors.ErrCodeInvalidInput, "unknown strategy %q (want one of %s)",
		name, strings.Join(strategyNames[:], ", "))
}

// Stats counts registered candidates.
type Stats struct {
	Total     int `json:"total"`
	Installed int `json:"installed"`
	Editable  int `json:"editable"`
}

// Selector holds installed candidates keyed by "name==version". It is safe
// for concurrent use.
type Selector struct {
	mu        sync.RWMutex
	installed map[string]Candidate
}

// NewSelector returns a selector with no installed candidates.
func NewSelector() *Selector {
	return &Selector{installed: make(map[string]Candidate)}
}

// RegisterInstalled records pkg as installed from an index.
func (s *Selector) RegisterInstalled(pkg *deps.Package, editable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installed[pkg.Key()] = Candidate{Package: pkg, Installed: true, Editable: editable}
}

// CanReuseInstalled reports whether name==version is registered with the
// same link URL and the same editable flag. An empty linkURL matches only
// a candidate without one.
func (s *Selector) CanReuseInstalled(name, version, linkURL string, editable bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.installed[deps.Key(name, version)]
	return ok && c.LinkURL == linkURL && c.Editable == editable
}

// SelectBest picks one of candidates according to strategy. Candidates
// without a Package are ignored; ok is false when none remain. Ties in
// version go to the earliest candidate.
func (s *Selector) SelectBest(candidates []Candidate, strategy Strategy) (best Candidate, ok bool) {
	candidates = slices.DeleteFunc(slices.Clone(candidates), func(c Candidate) bool { return c.Package == nil })
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	switch strategy {
	case PreferInstalled:
		if c, ok := firstInstalled(candidates); ok {
			return c, true
		}
		return candidates[0], true
	case PreferLatest:
		return latest(candidates), true
	case PreferCompatible:
		if c, ok := firstInstalled(candidates); ok {
			return c, true
		}
		return latest(candidates), true
	default:
		return candidates[0], true
	}
}

func firstInstalled(candidates []Candidate) (Candidate, bool) {
	for _, c := range candidates {
		if c.Installed {
			return c, true
		}
	}
	return Candidate{}, false
}

func latest(candidates []Candidate) Candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if deps.CompareVersions(c.Package.Version, best.Package.Version) > 0 {
			best = c
		}
	}
	return best
}

// Installed returns the registered candidates sorted by key.
func (s *Selector) Installed() []Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.installed))
	for k := range s.installed {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]Candidate, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.installed[k])
	}
	return out
}

// ClearInstalled forgets every registered candidate.
func (s *Selector) ClearInstalled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.installed)
}

// Stats counts the registered candidates.
func (s *Selector) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Total: len(s.installed)}
	for _, c := range s.installed {
		if c.Installed {
			st.Installed++
		}
		if c.Editable {
			st.Editable++
		}
	}
	return st
}
