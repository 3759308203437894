// Package resolver turns a list of requirements into a concrete set of
// packages by walking the dependency graph.
//
// # Algorithm
//
// Each [Resolver.Resolve] call owns a FIFO work queue and a visited-name
// set; the [Resolver] holds the [ConstraintSet] and the memo caches keyed by
// name==version. Each iteration drains up to
// Options.Concurrency unvisited requirements into a batch, marking every
// name visited before any fetch starts. The batch is fetched concurrently
// through a [MetadataSource] by an errgroup limited to the same width,
// and the results are applied in batch order once all fetches
// have returned:
//
//  1. A failed fetch is logged and the requirement is omitted.
//  2. A package whose version fails its requirement or a constraint is
//     logged and dropped; its dependencies are not expanded.
//  3. Otherwise the package is appended to the result, and each of
//     its requires_dist entries whose marker holds is enqueued unless
//     its name was already visited.
//
// A name is fetched at most once per [Resolver.Resolve] call, so the walk
// always terminates. The first version seen for a name wins: a stricter
// demand for the same name reached later through another branch is
// ignored, not reconciled. This is a best-effort walk, not a backtracking
// solver.
//
// # Errors
//
// Only invalid input is a hard error. Fetch failures, version mismatches
// and constraint rejections shrink the result and are reported through
// the logger; callers decide whether a partial result is acceptable.
//
// # Concurrency
//
// Fetch goroutines only return values. The visited set, queue and caches
// are touched solely by the goroutine running Resolve, so a Resolver must
// not be used by two Resolve calls at once.
package resolver
