// Package python connects the resolver to the Python packaging ecosystem.
//
// # Metadata Source
//
// [Source] adapts a [pypi.Client] to [resolver.MetadataSource]:
//
//	client := pypi.NewClient(backend, 24*time.Hour)
//	r := resolver.New(python.NewSource(client, false), resolver.Options{})
//	pkgs, err := r.ResolveStrings(ctx, []string{"fastapi>=0.100"})
//
// Missing projects surface as PACKAGE_NOT_FOUND errors; the resolver logs
// and omits them like any other fetch failure.
//
// # Input Files
//
// [LoadRequirements] reads direct requirements from either a pip
// requirements file or a pyproject.toml ([project].dependencies plus any
// requested optional-dependency groups).
//
// [LoadInstalled] reads the set of already-installed releases from a
// `pip freeze` listing or a poetry.lock file, for use with
// [candidate.Selector.RegisterInstalled].
//
// # Package Name Normalization
//
// Names are normalized following PEP 503: lowercase with runs of "_", "-"
// and "." collapsed to "-". See [deps.NormalizeName].
package python
