package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/pipcore/pkg/core/deps"
	"github.com/matzehuels/pipcore/pkg/core/deps/marker"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
)

// mockSource serves packages from an in-memory index keyed by name, then
// by version. "latest" returns the entry stored under latest[name].
type mockSource struct {
	mu       sync.Mutex
	index    map[string]map[string]*deps.Package
	latest   map[string]string
	calls    map[string]int
	failures map[string]error

	inflight    atomic.Int32
	maxInflight atomic.Int32
	delay       time.Duration
}

func newMockSource() *mockSource {
	return &mockSource{
		index:    make(map[string]map[string]*deps.Package),
		latest:   make(map[string]string),
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

// add registers a release; the last one added for a name is "latest".
func (m *mockSource) add(name, version string, requiresDist ...string) {
	if m.index[name] == nil {
		m.index[name] = make(map[string]*deps.Package)
	}
	m.index[name][version] = deps.NewPackage(name, version, requiresDist...)
	m.latest[name] = version
}

func (m *mockSource) Fetch(ctx context.Context, name, selector string) (*deps.Package, error) {
	n := m.inflight.Add(1)
	defer m.inflight.Add(-1)
	for {
		cur := m.maxInflight.Load()
		if n <= cur || m.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++

	if err := m.failures[name]; err != nil {
		return nil, err
	}
	versions, ok := m.index[name]
	if !ok {
		return nil, fmt.Errorf("package %s not found", name)
	}
	if selector == deps.SelectorLatest {
		selector = m.latest[name]
	}
	pkg, ok := versions[selector]
	if !ok {
		return nil, fmt.Errorf("%s==%s not found", name, selector)
	}
	return pkg.Clone(), nil
}

func (m *mockSource) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func linuxEnv() marker.Environment {
	return marker.Environment{
		PythonVersion:     "3.11",
		PythonFullVersion: "3.11.0",
		Platform:          "linux",
		Implementation:    "cpython",
		Architecture:      "x86_64",
		OSName:            "posix",
		PlatformSystem:    "Linux",
	}
}

func names(pkgs []*deps.Package) string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Name + "@" + p.Version
	}
	return strings.Join(out, " ")
}

func resolve(t *testing.T, r *Resolver, specs ...string) []*deps.Package {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pkgs, err := r.ResolveStrings(ctx, specs)
	if err != nil {
		t.Fatalf("Resolve(%v) error: %v", specs, err)
	}
	return pkgs
}

func TestResolveEndToEndLinux(t *testing.T) {
	src := newMockSource()
	src.add("alpha", "1.2", "beta>=1.0; sys_platform=='linux'")
	src.add("beta", "1.5")

	r := New(src, Options{Environment: linuxEnv()})
	pkgs := resolve(t, r, "alpha>=1.0")

	if got := names(pkgs); got != "alpha@1.2 beta@1.5" {
		t.Errorf("Resolve() = %s, want alpha@1.2 beta@1.5", got)
	}
}

func TestResolveEndToEndWindowsMarkerExcluded(t *testing.T) {
	src := newMockSource()
	src.add("alpha", "1.2", "beta>=1.0; sys_platform=='linux'")
	src.add("beta", "1.5")

	env := linuxEnv().WithPlatform("win32")
	r := New(src, Options{Environment: env})
	pkgs := resolve(t, r, "alpha>=1.0")

	if got := names(pkgs); got != "alpha@1.2" {
		t.Errorf("Resolve() = %s, want alpha@1.2", got)
	}
	if src.callCount("beta") != 0 {
		t.Error("marker-excluded dependency must not be fetched")
	}
}

func TestMarkerExcludedDependencyIsNotVisited(t *testing.T) {
	src := newMockSource()
	src.add("root", "1.0", "win-only; sys_platform == 'win32'", "mid")
	src.add("mid", "1.0", "win-only")
	src.add("win-only", "1.0")

	r := New(src, Options{Environment: linuxEnv(), Concurrency: 1})
	pkgs := resolve(t, r, "root")

	if got := names(pkgs); got != "root@1.0 mid@1.0 win-only@1.0" {
		t.Errorf("Resolve() = %s; a name skipped by its marker must stay reachable", got)
	}
}

func TestResolveVisitedOnce(t *testing.T) {
	src := newMockSource()
	src.add("a", "1.5", "b", "c")
	src.add("b", "1.0", "a>=1.0", "c")
	src.add("c", "1.0", "a", "b")

	r := New(src, Options{Environment: linuxEnv()})
	pkgs := resolve(t, r, "a", "a>=1.0")

	if len(pkgs) != 3 {
		t.Errorf("Resolve() = %s, want 3 packages", names(pkgs))
	}
	for _, n := range []string{"a", "b", "c"} {
		if got := src.callCount(n); got != 1 {
			t.Errorf("%s fetched %d times, want 1", n, got)
		}
	}
}

func TestResolveFetchFailureOmitted(t *testing.T) {
	src := newMockSource()
	src.add("app", "1.0", "broken", "ok")
	src.add("ok", "2.0")
	src.failures["broken"] = errors.New("connection reset")

	r := New(src, Options{Environment: linuxEnv()})
	pkgs := resolve(t, r, "app", "missing")

	if got := names(pkgs); got != "app@1.0 ok@2.0" {
		t.Errorf("Resolve() = %s, want app@1.0 ok@2.0", got)
	}
}

func TestResolveVersionMismatchDropsSubtree(t *testing.T) {
	src := newMockSource()
	src.add("old", "1.0", "child")
	src.add("child", "1.0")

	r := New(src, Options{Environment: linuxEnv()})
	pkgs := resolve(t, r, "old>=2.0")

	if len(pkgs) != 0 {
		t.Errorf("Resolve() = %s, want nothing", names(pkgs))
	}
	if src.callCount("child") != 0 {
		t.Error("dependencies of a rejected package must not be expanded")
	}
}

func TestResolvePinnedSelector(t *testing.T) {
	src := newMockSource()
	src.add("lib", "1.0")
	src.add("lib", "2.0")

	r := New(src, Options{Environment: linuxEnv()})
	if got := names(resolve(t, r, "lib==1.0")); got != "lib@1.0" {
		t.Errorf("pinned = %s, want lib@1.0", got)
	}

	r = New(src, Options{Environment: linuxEnv()})
	if got := names(resolve(t, r, "lib>=1.0")); got != "lib@2.0" {
		t.Errorf("range = %s, want lib@2.0", got)
	}
}

func TestResolveConstraints(t *testing.T) {
	src := newMockSource()
	src.add("app", "1.0", "urllib3", "idna")
	src.add("urllib3", "2.2.0")
	src.add("idna", "3.6")

	r := New(src, Options{Environment: linuxEnv()})
	r.SetConstraints([]deps.Requirement{
		deps.MustParse("urllib3<2"),
		deps.MustParse("idna>=3"),
		deps.MustParse("idna<4"),
		deps.MustParse("app<0.1; sys_platform == 'win32'"),
	})

	pkgs := resolve(t, r, "app")
	if got := names(pkgs); got != "app@1.0 idna@3.6" {
		t.Errorf("Resolve() = %s, want app@1.0 idna@3.6", got)
	}
	if len(r.Constraints().For("app")) != 0 {
		t.Error("constraint with a false marker should be ignored")
	}
}

func TestResolveFirstWins(t *testing.T) {
	// a depends on c>=2 (reached first), b on c<2 (reached later). The walk
	// keeps c@2.5 and ignores b's conflicting demand.
	src := newMockSource()
	src.add("a", "1.0", "c>=2")
	src.add("b", "1.0", "c<2")
	src.add("c", "1.0")
	src.add("c", "2.5")

	r := New(src, Options{Environment: linuxEnv()})
	pkgs := resolve(t, r, "a", "b")

	if got := names(pkgs); got != "a@1.0 b@1.0 c@2.5" {
		t.Errorf("Resolve() = %s, want a@1.0 b@1.0 c@2.5", got)
	}
	if src.callCount("c") != 1 {
		t.Errorf("c fetched %d times, want 1", src.callCount("c"))
	}
}

func TestResolveExtras(t *testing.T) {
	src := newMockSource()
	src.add("requests", "2.31.0",
		"idna<4",
		"PySocks>=1.5.6; extra == 'socks'",
		"chardet; extra == 'use-chardet'")
	src.add("idna", "3.6")
	src.add("pysocks", "1.7.1")
	src.add("chardet", "5.0")

	r := New(src, Options{Environment: linuxEnv()})
	pkgs := resolve(t, r, "requests[socks]")

	if got := names(pkgs); got != "requests@2.31.0 idna@3.6 pysocks@1.7.1" {
		t.Errorf("Resolve() = %s", got)
	}
}

func TestResolveInvalidInput(t *testing.T) {
	src := newMockSource()
	r := New(src, Options{Environment: linuxEnv()})

	_, err := r.ResolveStrings(context.Background(), []string{"ok", "bad>>1"})
	if !perrors.Is(err, perrors.ErrCodeInvalidRequirement) {
		t.Errorf("expected INVALID_REQUIREMENT, got %v", err)
	}

	_, err = r.Resolve(context.Background(), []deps.Requirement{{}})
	if !perrors.Is(err, perrors.ErrCodeInvalidRequirement) {
		t.Errorf("expected INVALID_REQUIREMENT for empty name, got %v", err)
	}
	if src.callCount("ok") != 0 {
		t.Error("invalid input must be rejected before any fetch")
	}
}

func TestResolveConcurrencyBound(t *testing.T) {
	src := newMockSource()
	src.delay = 10 * time.Millisecond
	var root []string
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("p%d", i)
		src.add(name, "1.0")
		root = append(root, name)
	}

	r := New(src, Options{Environment: linuxEnv(), Concurrency: 3})
	pkgs := resolve(t, r, root...)

	if len(pkgs) != 12 {
		t.Fatalf("got %d packages, want 12", len(pkgs))
	}
	if m := src.maxInflight.Load(); m > 3 {
		t.Errorf("max in-flight fetches = %d, want <= 3", m)
	}
	// Results follow request order within each batch.
	for i, p := range pkgs {
		if want := fmt.Sprintf("p%d", i); p.Name != want {
			t.Errorf("pkgs[%d] = %s, want %s", i, p.Name, want)
		}
	}
}

func TestResolveCanceled(t *testing.T) {
	src := newMockSource()
	src.add("a", "1.0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(src, Options{Environment: linuxEnv()})
	if _, err := r.Resolve(ctx, []deps.Requirement{deps.MustParse("a")}); !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
}

func TestResolveRefetchesAcrossCalls(t *testing.T) {
	src := newMockSource()
	src.add("a", "1.0", "b")
	src.add("b", "1.0")

	r := New(src, Options{Environment: linuxEnv()})
	resolve(t, r, "a")
	pkgs := resolve(t, r, "a")

	if len(pkgs) != 2 {
		t.Fatalf("second Resolve() = %s", names(pkgs))
	}
	if src.callCount("a") != 2 || src.callCount("b") != 2 {
		t.Errorf("each call should fetch again: a=%d b=%d", src.callCount("a"), src.callCount("b"))
	}
	if s := r.DependencyStats(); s.Hits != 2 || s.Size != 2 {
		t.Errorf("DependencyStats() = %+v", s)
	}

	r.ClearCache()
	if s := r.DependencyStats(); s.Hits != 0 || s.Size != 0 {
		t.Errorf("DependencyStats() after ClearCache = %+v", s)
	}
}

func TestResolveLatestAfterPinnedCall(t *testing.T) {
	src := newMockSource()
	src.add("lib", "1.0")
	src.add("lib", "2.0")

	r := New(src, Options{Environment: linuxEnv()})
	if got := names(resolve(t, r, "lib==1.0")); got != "lib@1.0" {
		t.Fatalf("Resolve(lib==1.0) = %s", got)
	}
	if got := names(resolve(t, r, "lib>=1.0")); got != "lib@2.0" {
		t.Errorf("Resolve(lib>=1.0) after a pinned call = %s, want lib@2.0", got)
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.WithDefaults()
	if o.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", o.Concurrency, DefaultConcurrency)
	}
	if o.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	if o.Environment != marker.Current() {
		t.Error("Environment should default to marker.Current()")
	}

	env := linuxEnv()
	o = Options{Environment: env, Concurrency: 4}.WithDefaults()
	if o.Environment != env || o.Concurrency != 4 {
		t.Errorf("explicit options overwritten: %+v", o)
	}
}
