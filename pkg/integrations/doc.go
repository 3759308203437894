// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// The [Client] type provides the shared plumbing: request headers, retry
// with exponential backoff for transient failures, and caching of decoded
// responses through a [cache.Cache] backend under a per-registry
// namespace. Registry subpackages build on it:
//
//   - [pypi]: the Python Package Index JSON API
//
// # Client Pattern
//
//	backend, _ := cache.NewFileCache("")
//	client := pypi.NewClient(backend, 24*time.Hour)
//	pkg, err := client.FetchPackage(ctx, "fastapi", "latest", false) // false = use cache
//
// # Errors
//
// A 404 maps to [ErrNotFound]. Connection failures, 429 and 5xx responses
// map to [ErrNetwork] wrapped in [cache.RetryableError] so [Client.Cached]
// retries them; other statuses map to a plain [ErrNetwork].
//
// [pypi]: github.com/matzehuels/pipcore/pkg/integrations/pypi
// [cache.Cache]: github.com/matzehuels/pipcore/pkg/cache.Cache
// [cache.RetryableError]: github.com/matzehuels/pipcore/pkg/cache.RetryableError
package integrations
