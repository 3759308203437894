package resolver

import (
	"testing"

	"github.com/matzehuels/pipcore/pkg/core/deps"
)

func TestDependencyCacheStats(t *testing.T) {
	c := NewDependencyCache()

	if _, ok := c.Get("Pkg", "1.0"); ok {
		t.Fatal("fresh cache should miss")
	}
	c.Set(CachedDependencies{
		PackageName: "pkg",
		Version:     "1.0",
		Deps:        []deps.Requirement{deps.MustParse("dep>=1")},
	})
	got, ok := c.Get("PKG", "1.0")
	if !ok || len(got.Deps) != 1 {
		t.Fatalf("Get() = %+v, %v", got, ok)
	}

	s := c.Stats()
	want := Stats{Hits: 1, Misses: 1, Total: 2, HitRate: 50.0, Size: 1}
	if s != want {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}
}

func TestDependencyCacheReturnsCopies(t *testing.T) {
	c := NewDependencyCache()
	c.Set(CachedDependencies{PackageName: "a", Version: "1", Deps: []deps.Requirement{{Name: "b"}}})

	got, _ := c.Get("a", "1")
	got.Deps[0].Name = "mutated"

	again, _ := c.Get("a", "1")
	if again.Deps[0].Name != "b" {
		t.Error("Get() must return a copy")
	}
}

func TestDependencyCacheClear(t *testing.T) {
	c := NewDependencyCache()
	c.Set(CachedDependencies{PackageName: "a", Version: "1"})
	c.Get("a", "1")
	c.Clear()

	if s := c.Stats(); s != (Stats{}) {
		t.Errorf("Stats() after Clear = %+v", s)
	}
}

func TestEmptyStatsHitRate(t *testing.T) {
	if s := NewDependencyCache().Stats(); s.HitRate != 0 || s.Total != 0 {
		t.Errorf("empty Stats() = %+v", s)
	}
}

func TestVersionCache(t *testing.T) {
	c := NewVersionCache()

	v := c.Parse("1.2.3")
	if v.String() != "1.2.3" {
		t.Errorf("Parse() = %s", v)
	}
	v[0] = 99
	if c.Parse("1.2.3").String() != "1.2.3" {
		t.Error("cached entries must not be mutable through returned values")
	}

	if !c.Satisfies("2.1.0", []deps.VersionSpec{{Op: deps.OpCompatible, Version: "2.0.0"}}) {
		t.Error("2.1.0 should satisfy ~=2.0.0")
	}

	s := c.Stats()
	if s.Size != 3 || s.Hits != 1 || s.Misses != 3 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestConstraintSet(t *testing.T) {
	c := NewConstraintSet([]deps.Requirement{
		deps.MustParse("Foo>=1"),
		deps.MustParse("foo<2"),
	})

	if len(c.For("FOO")) != 2 {
		t.Errorf("For() = %v", c.For("FOO"))
	}
	if !c.Allows("foo", "1.5") {
		t.Error("1.5 should satisfy >=1,<2")
	}
	if c.Allows("foo", "2.0") {
		t.Error("2.0 should violate <2")
	}
	if !c.Allows("bar", "0.1") {
		t.Error("unconstrained names allow anything")
	}
}
