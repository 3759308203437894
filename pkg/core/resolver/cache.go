package resolver

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/pipcore/pkg/core/deps"
	"github.com/matzehuels/pipcore/pkg/observability"
)

// Stats summarizes a memo cache.
type Stats struct {
	Hits    int     `json:"hits"`
	Misses  int     `json:"misses"`
	Total   int     `json:"total"`    // Hits + Misses
	HitRate float64 `json:"hit_rate"` // Percentage in [0, 100]; 0 when Total is 0
	Size    int     `json:"size"`     // Distinct entries
}

func newStats(hits, misses, size int) Stats {
	s := Stats{Hits: hits, Misses: misses, Total: hits + misses, Size: size}
	if s.Total > 0 {
		s.HitRate = float64(hits) / float64(s.Total) * 100
	}
	return s
}

// CachedDependencies is the parsed dependency list of one release.
type CachedDependencies struct {
	PackageName string             `json:"package_name"`
	Version     string             `json:"version"`
	Deps        []deps.Requirement `json:"deps"`
	Extras      []string           `json:"extras,omitempty"` // Extras the release declares
}

func (c CachedDependencies) clone() CachedDependencies {
	c.Deps = slices.Clone(c.Deps)
	c.Extras = slices.Clone(c.Extras)
	return c
}

// DependencyCache memoizes parsed dependency lists by "name==version".
// Entries never expire. It is safe for concurrent use.
type DependencyCache struct {
	mu      sync.Mutex
	entries map[string]CachedDependencies
	hits    int
	misses  int
}

// NewDependencyCache returns an empty cache.
func NewDependencyCache() *DependencyCache {
	return &DependencyCache{entries: make(map[string]CachedDependencies)}
}

// Get returns a copy of the entry for name and version.
func (c *DependencyCache) Get(name, version string) (CachedDependencies, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[deps.Key(name, version)]
	if !ok {
		c.misses++
		observability.Cache().OnCacheMiss(context.Background(), "deps")
		return CachedDependencies{}, false
	}
	c.hits++
	observability.Cache().OnCacheHit(context.Background(), "deps")
	return e.clone(), true
}

// Set stores e, replacing any entry with the same name and version.
func (c *DependencyCache) Set(e CachedDependencies) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[deps.Key(e.PackageName, e.Version)] = e.clone()
	observability.Cache().OnCacheSet(context.Background(), "deps", len(e.Deps))
}

// Stats reports hit/miss counters and size.
func (c *DependencyCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newStats(c.hits, c.misses, len(c.entries))
}

// Clear drops all entries and resets the counters.
func (c *DependencyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]CachedDependencies)
	c.hits, c.misses = 0, 0
}

// VersionCache memoizes [deps.ParseVersion] by the literal version string.
// An entry is never replaced once stored. It is safe for concurrent use.
type VersionCache struct {
	mu      sync.Mutex
	entries map[string]deps.Version
	hits    int
	misses  int
}

// NewVersionCache returns an empty cache.
func NewVersionCache() *VersionCache {
	return &VersionCache{entries: make(map[string]deps.Version)}
}

// Parse returns the parsed form of s, parsing and storing it on first use.
func (c *VersionCache) Parse(s string) deps.Version {
	s = strings.TrimSpace(s)

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[s]; ok {
		c.hits++
		return slices.Clone(v)
	}
	c.misses++
	v := deps.ParseVersion(s)
	c.entries[s] = v
	return slices.Clone(v)
}

// Satisfies reports whether version meets every spec, using memoized
// parses for both sides.
func (c *VersionCache) Satisfies(version string, specs []deps.VersionSpec) bool {
	v := c.Parse(version)
	for _, s := range specs {
		if !s.MatchesParsed(v, c.Parse(s.Version)) {
			return false
		}
	}
	return true
}

// Stats reports hit/miss counters and size.
func (c *VersionCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newStats(c.hits, c.misses, len(c.entries))
}

// Clear drops all entries and resets the counters.
func (c *VersionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]deps.Version)
	c.hits, c.misses = 0, 0
}
