// Package pkg provides the core libraries for pipcore, a Python dependency
// resolver.
//
// # Overview
//
// pipcore turns a list of requirements into a flat set of concrete releases.
// It walks the dependency graph breadth-first in concurrent batches,
// evaluates environment markers against a target platform, applies version
// clauses and global constraints, and records the result in a lock file.
// Resolution is first-wins and never backtracks: a release that cannot be
// fetched or does not satisfy its requirement is logged and omitted.
//
// # Architecture
//
// The typical data flow through pipcore:
//
//	requirements.txt / pyproject.toml / CLI args
//	         ↓
//	    [core/deps] (parse requirements and versions)
//	         ↓
//	    [core/resolver] (batched walk, markers, constraints, memo caches)
//	         ↓  ↑ [core/deps/python] source → [integrations/pypi] → [cache]
//	    [core/candidate] (reuse installed releases)
//	         ↓
//	    [core/lockfile] (pip-lock.json)
//
// # Quick Start
//
//	import (
//	    "fmt"
//
//	    "github.com/matzehuels/pipcore/pkg/cache"
//	    "github.com/matzehuels/pipcore/pkg/core/deps/marker"
//	    "github.com/matzehuels/pipcore/pkg/core/deps/python"
//	    "github.com/matzehuels/pipcore/pkg/core/lockfile"
//	    "github.com/matzehuels/pipcore/pkg/core/resolver"
//	    "github.com/matzehuels/pipcore/pkg/integrations/pypi"
//	)
//
//	backend, err := cache.NewFileCache("")
//	if err != nil {
//	    return err
//	}
//	defer backend.Close()
//	client := pypi.NewClient(backend, cache.DefaultTTL)
//
//	env := marker.Current().WithPlatform("linux").WithPythonVersion("3.12")
//	r := resolver.New(python.NewSource(client, false), resolver.Options{Environment: env})
//
//	pkgs, err := r.ResolveStrings(ctx, []string{"fastapi>=0.100", "uvicorn[standard]"})
//	if err != nil {
//	    return err // invalid input only
//	}
//	lf := lockfile.FromPackages(pkgs, env.PythonVersion)
//	if err := lf.Validate(); err != nil {
//	    return err // nothing resolved
//	}
//	if err := lf.Save(lockfile.DefaultFilename); err != nil {
//	    return fmt.Errorf("save lock file: %w", err)
//	}
//
// # Main Packages
//
// ## Core Domain Logic
//
// [core/deps] - Requirement and version model: requirement parsing, version
// comparison, requirements files and extras.
//
// [core/deps/marker] - Target environment and marker evaluation.
//
// [core/resolver] - The breadth-first batched resolver with its dependency
// and version memo caches and global constraint set.
//
// [core/candidate] - Installed-release registry and candidate strategies.
//
// [core/lockfile] - JSON lock file model with atomic save.
//
// ## External Integrations
//
// [integrations] - Shared HTTP client with response caching and retries.
// [integrations/pypi] fetches release metadata from the PyPI JSON API.
//
// ## Infrastructure
//
// [cache] - Cache backends: FileCache (CLI), RedisCache (shared), NullCache.
//
// [config] - TOML configuration file.
//
// [errors] - Coded errors (INVALID_REQUIREMENT, INVALID_LOCKFILE, ...).
//
// [observability] - Global hooks for resolver, cache and HTTP events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/core/resolver/...      # Specific package
//	go test -tags integration ./pkg/...  # Include live PyPI tests
//
// [core/deps]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/core/deps
// [core/deps/marker]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/core/deps/marker
// [core/deps/python]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/core/deps/python
// [core/resolver]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/core/resolver
// [core/candidate]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/core/candidate
// [core/lockfile]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/core/lockfile
// [integrations]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/integrations
// [integrations/pypi]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/integrations/pypi
// [cache]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/pipcore/pkg/observability
package pkg
