package integrations

import (
	"errors"
	"net/http"
	"time"

	"github.com/matzehuels/pipcore/pkg/buildinfo"
	"github.com/matzehuels/pipcore/pkg/core/deps"
)

// DefaultTimeout bounds a single registry request.
const DefaultTimeout = 10 * time.Second

// UserAgent identifies pipcore to registries.
var UserAgent = buildinfo.UserAgent()

var (
	// ErrNotFound is returned when a package or release doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with the given request timeout.
// A timeout <= 0 means [DefaultTimeout].
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// NormalizePkgName converts a package name to its canonical form
// (lowercase, underscores to hyphens).
func NormalizePkgName(name string) string {
	return deps.NormalizeName(name)
}
