package pypi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/pipcore/pkg/cache"
	"github.com/matzehuels/pipcore/pkg/core/deps"
	"github.com/matzehuels/pipcore/pkg/integrations"
)

// DefaultIndexURL is the JSON API root of the public index.
const DefaultIndexURL = "https://pypi.org/pypi"

// Latest selects the newest release of a project.
const Latest = deps.SelectorLatest

// Client provides access to the PyPI JSON API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for response caching (nil or [cache.NullCache] disables caching)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "pypi:", cacheTTL, nil),
		baseURL: DefaultIndexURL,
	}
}

// SetIndexURL points the client at a different JSON API root, such as a
// private mirror. Trailing slashes are ignored; an empty value restores
// [DefaultIndexURL].
func (c *Client) SetIndexURL(u string) {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if u == "" {
		u = DefaultIndexURL
	}
	c.baseURL = u
}

// IndexURL returns the JSON API root in use.
func (c *Client) IndexURL() string {
	return c.baseURL
}

// FetchPackage retrieves metadata for one release of a project.
//
// The selector is either "latest" (or empty) for the newest release, or a
// concrete version string. The name is normalized before the request and
// the cache lookup. If refresh is true the cache is bypassed.
//
// Returns:
//   - the release metadata on success
//   - [integrations.ErrNotFound] wrapped with the project name if the project or release doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - other errors for JSON decoding failures
func (c *Client) FetchPackage(ctx context.Context, name, selector string, refresh bool) (*deps.Package, error) {
	name = integrations.NormalizePkgName(name)
	selector = strings.TrimSpace(selector)
	if selector == "" {
		selector = Latest
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty package name", integrations.ErrNotFound)
	}

	var pkg deps.Package
	err := c.Cached(ctx, name+"@"+selector, refresh, &pkg, func() error {
		return c.fetch(ctx, name, selector, &pkg)
	})
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (c *Client) releaseURL(name, selector string) string {
	if selector == Latest {
		return fmt.Sprintf("%s/%s/json", c.baseURL, url.PathEscape(name))
	}
	return fmt.Sprintf("%s/%s/%s/json", c.baseURL, url.PathEscape(name), url.PathEscape(selector))
}

func (c *Client) fetch(ctx context.Context, name, selector string, pkg *deps.Package) error {
	var data apiResponse
	if err := c.Get(ctx, c.releaseURL(name, selector), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			if selector == Latest {
				return fmt.Errorf("%w: pypi package %s", err, name)
			}
			return fmt.Errorf("%w: pypi package %s %s", err, name, selector)
		}
		return err
	}

	info := data.Info
	if info.Name == "" {
		info.Name = name
	}
	*pkg = deps.Package{
		Name:           info.Name,
		Version:        info.Version,
		Summary:        info.Summary,
		RequiresPython: info.RequiresPython,
		RequiresDist:   info.RequiresDist,
		Classifiers:    info.Classifiers,
		License:        extractLicenseType(info.License, info.Classifiers),
		Author:         info.Author,
		HomePage:       info.HomePage,
	}
	return nil
}

type apiResponse struct {
	Info apiInfo `json:"info"`
}

type apiInfo struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Summary        string   `json:"summary"`
	RequiresPython string   `json:"requires_python"`
	License        string   `json:"license"`
	Classifiers    []string `json:"classifiers"`
	RequiresDist   []string `json:"requires_dist"`
	HomePage       string   `json:"home_page"`
	Author         string   `json:"author"`
}

// extractLicenseType extracts a short license identifier from PyPI data.
// It prefers the classifier (e.g., "License :: OSI Approved :: MIT License" -> "MIT License")
// and falls back to the license field if it's short enough.
func extractLicenseType(license string, classifiers []string) string {
	for _, c := range classifiers {
		if strings.HasPrefix(c, "License :: ") {
			parts := strings.Split(c, " :: ")
			if len(parts) >= 3 {
				return parts[len(parts)-1]
			}
		}
	}

	if license != "" && len(license) < 100 && !strings.Contains(license, "\n") {
		return strings.TrimSpace(license)
	}

	// Full license text: keep a short first line such as "MIT License".
	if license != "" {
		firstLine := strings.TrimSpace(strings.Split(license, "\n")[0])
		if len(firstLine) < 50 {
			return firstLine
		}
	}

	return ""
}
