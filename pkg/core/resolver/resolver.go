package resolver

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pipcore/pkg/core/deps"
	"github.com/matzehuels/pipcore/pkg/core/deps/marker"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
	"github.com/matzehuels/pipcore/pkg/observability"
)

// Resolver walks the dependency graph of a set of requirements.
//
// The dependency and version caches are keyed by name==version and
// survive across Resolve calls until [Resolver.ClearCache]. Everything keyed
// by name alone (visited set, queue, accepted releases) lives for one call.
type Resolver struct {
	source MetadataSource
	opts   Options

	constraints ConstraintSet
	deps        *DependencyCache
	versions    *VersionCache
}

// New creates a resolver that fetches metadata from source.
func New(source MetadataSource, opts Options) *Resolver {
	opts = opts.WithDefaults()
	return &Resolver{
		source:      source,
		opts:        opts,
		constraints: ConstraintSet{},
		deps:        NewDependencyCache(),
		versions:    NewVersionCache(),
	}
}

// Environment returns the environment markers are evaluated against.
func (r *Resolver) Environment() marker.Environment { return r.opts.Environment }

// SetConstraints replaces the constraint set. Constraints whose own marker
// is false under the resolver's environment are ignored.
func (r *Resolver) SetConstraints(reqs []deps.Requirement) {
	r.constraints = ConstraintSet{}
	for _, c := range reqs {
		if c.HasMarker() && !marker.Evaluate(c.Marker, r.opts.Environment) {
			r.opts.Logger.Debug("constraint skipped", "constraint", c.String(), "marker", c.Marker)
			continue
		}
		r.constraints.Add(c)
	}
}

// Constraints returns the active constraint set.
func (r *Resolver) Constraints() ConstraintSet { return r.constraints }

// ClearCache drops the dependency and version caches and the constraint
// set.
func (r *Resolver) ClearCache() {
	r.constraints = ConstraintSet{}
	r.deps.Clear()
	r.versions.Clear()
}

// DependencyStats reports the dependency cache counters.
func (r *Resolver) DependencyStats() Stats { return r.deps.Stats() }

// VersionStats reports the version-parse cache counters.
func (r *Resolver) VersionStats() Stats { return r.versions.Stats() }

// ResolveStrings parses specs and resolves them. A malformed requirement
// aborts with INVALID_REQUIREMENT before anything is fetched.
func (r *Resolver) ResolveStrings(ctx context.Context, specs []string) ([]*deps.Package, error) {
	reqs, err := deps.ParseAll(specs)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, reqs)
}

// Resolve returns the packages reachable from reqs, in the order they were
// accepted.
//
// The only errors are a requirement without a name, which is rejected
// before anything is fetched, and cancellation of ctx, observed between
// batches. Every other problem is logged and the affected package is left
// out of the result.
func (r *Resolver) Resolve(ctx context.Context, reqs []deps.Requirement) (pkgs []*deps.Package, err error) {
	for _, req := range reqs {
		if deps.NormalizeName(req.Name) == "" {
			return nil, perrors.New(perrors.ErrCodeInvalidRequirement, "requirement without a package name")
		}
	}

	start := time.Now()
	observability.Resolver().OnResolveStart(ctx, len(reqs))
	defer func() {
		observability.Resolver().OnResolveComplete(ctx, len(pkgs), time.Since(start), err)
	}()

	w := &walk{
		Resolver: r,
		ctx:      ctx,
		visited:  make(map[string]bool),
	}
	for _, req := range reqs {
		w.push(req)
	}

	for len(w.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch := w.nextBatch()
		if len(batch) == 0 {
			continue
		}
		observability.Resolver().OnBatch(ctx, len(batch))
		r.opts.Logger.Debug("batch", "size", len(batch), "queued", len(w.queue))

		for i, res := range r.fetchBatch(ctx, batch) {
			w.apply(batch[i], res)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, v := r.deps.Stats(), r.versions.Stats()
	r.opts.Logger.Debug("cache stats",
		"deps_hits", d.Hits, "deps_misses", d.Misses,
		"version_hits", v.Hits, "version_size", v.Size)
	return w.result, nil
}

// walk is the per-call state of one Resolve.
type walk struct {
	*Resolver
	ctx     context.Context
	queue   []deps.Requirement
	visited map[string]bool
	result  []*deps.Package
}

func (w *walk) push(req deps.Requirement) {
	req.Name = deps.NormalizeName(req.Name)
	w.queue = append(w.queue, req)
}

// nextBatch pops up to Concurrency unvisited requirements and marks them
// visited. Requirements for names already visited are discarded.
func (w *walk) nextBatch() []deps.Requirement {
	batch := make([]deps.Requirement, 0, w.opts.Concurrency)
	for len(w.queue) > 0 && len(batch) < w.opts.Concurrency {
		req := w.queue[0]
		w.queue = w.queue[1:]
		if w.visited[req.Name] {
			continue
		}
		w.visited[req.Name] = true
		batch = append(batch, req)
	}
	return batch
}

type fetchResult struct {
	pkg *deps.Package
	err error
}

// fetchBatch fetches every member of batch, at most Concurrency at a time,
// and returns results indexed like batch. Goroutines write only their own
// slot and never return an error, so one failure cancels nothing.
func (r *Resolver) fetchBatch(ctx context.Context, batch []deps.Requirement) []fetchResult {
	results := make([]fetchResult, len(batch))

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i, req := range batch {
		i, req := i, req
		g.Go(func() error {
			selector := req.Selector()
			start := time.Now()
			pkg, err := r.source.Fetch(ctx, req.Name, selector)
			if err == nil && pkg == nil {
				err = perrors.New(perrors.ErrCodePackageNotFound, "no metadata for %s", req.Name)
			}
			observability.Resolver().OnFetch(ctx, req.Name, selector, time.Since(start), err)
			results[i] = fetchResult{pkg: pkg, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// apply runs the acceptance checks for one fetched requirement and
// expands the accepted package's dependencies.
func (w *walk) apply(req deps.Requirement, res fetchResult) {
	log := w.opts.Logger
	if res.err != nil {
		log.Warn("fetch failed", "package", req.Name, "err", res.err)
		return
	}
	pkg := res.pkg

	if !w.versions.Satisfies(pkg.Version, req.Specs) {
		log.Warn("version mismatch", "package", req.Name, "version", pkg.Version, "requirement", req.String())
		return
	}
	for _, c := range w.constraints.For(req.Name) {
		if !w.versions.Satisfies(pkg.Version, c.Specs) {
			log.Warn("constraint rejected", "package", req.Name, "version", pkg.Version, "constraint", c.String())
			return
		}
	}

	w.result = append(w.result, pkg.Clone())

	for _, dep := range w.dependencies(pkg) {
		if dep.HasMarker() && !w.markerHolds(dep.Marker, req.Extras) {
			log.Debug("marker excluded", "package", dep.Name, "parent", req.Name, "marker", dep.Marker)
			continue
		}
		if w.visited[dep.Name] {
			continue
		}
		w.push(dep)
	}
}

// dependencies returns pkg's parsed requires_dist, memoized by
// name==version. Entries that fail to parse are logged and skipped.
func (r *Resolver) dependencies(pkg *deps.Package) []deps.Requirement {
	if cached, ok := r.deps.Get(pkg.Name, pkg.Version); ok {
		return cached.Deps
	}

	parsed := make([]deps.Requirement, 0, len(pkg.RequiresDist))
	for _, raw := range pkg.RequiresDist {
		req, err := deps.Parse(raw)
		if err != nil {
			r.opts.Logger.Debug("skipping dependency", "package", pkg.Name, "requirement", raw, "err", err)
			continue
		}
		parsed = append(parsed, req)
	}
	r.deps.Set(CachedDependencies{
		PackageName: pkg.Name,
		Version:     pkg.Version,
		Deps:        parsed,
		Extras:      deps.AvailableExtras(pkg),
	})
	return parsed
}

// markerHolds evaluates expr under the environment, then once more for each
// extra the parent requirement asked for with that extra bound.
func (r *Resolver) markerHolds(expr string, extras []string) bool {
	m, err := marker.Parse(expr)
	if err != nil {
		r.opts.Logger.Debug("invalid marker", "marker", expr, "err", err)
		return false
	}
	if m.Evaluate(r.opts.Environment) {
		return true
	}
	for _, x := range extras {
		if m.Evaluate(r.opts.Environment.WithExtra(x)) {
			return true
		}
	}
	return false
}
