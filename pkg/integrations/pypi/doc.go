// Package pypi provides an HTTP client for the Python Package Index JSON API.
//
// # Usage
//
//	client := pypi.NewClient(backend, 24*time.Hour)
//	client.SetIndexURL("https://pypi.org/pypi") // optional mirror
//
//	pkg, err := client.FetchPackage(ctx, "fastapi", "latest", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(pkg.Name, pkg.Version, pkg.RequiresDist)
//
// # Selectors
//
// "latest" requests {index}/{name}/json. Any other selector is treated as a
// concrete version and requests {index}/{name}/{version}/json.
//
// # Caching
//
// Responses are cached in the backend under "pypi:{name}@{selector}". Pass
// refresh=true to [Client.FetchPackage] to bypass the cache.
//
// requires_dist entries are returned verbatim; marker evaluation and
// filtering are left to the resolver.
package pypi
