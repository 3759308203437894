package pypi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/pipcore/pkg/cache"
	"github.com/matzehuels/pipcore/pkg/integrations"
)

func flaskHandler(hits *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var resp apiResponse
		switch r.URL.Path {
		case "/flask/json":
			resp.Info = apiInfo{
				Name:           "Flask",
				Version:        "3.0.0",
				Summary:        "A micro web framework",
				RequiresPython: ">=3.8",
				RequiresDist:   []string{"click>=8.1.3", "Werkzeug>=3.0.0", "asgiref>=3.2; extra == \"async\""},
				Classifiers:    []string{"License :: OSI Approved :: BSD License"},
				Author:         "Armin Ronacher",
			}
		case "/flask/2.0.0/json":
			resp.Info = apiInfo{Name: "Flask", Version: "2.0.0", RequiresDist: []string{"click>=7.1.2"}}
		default:
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestClient_FetchPackage(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(flaskHandler(&hits))
	defer server.Close()

	c := testClient(t, server.URL, nil)

	pkg, err := c.FetchPackage(context.Background(), "Flask", "latest", false)
	if err != nil {
		t.Fatalf("FetchPackage failed: %v", err)
	}
	if pkg.Name != "Flask" || pkg.Version != "3.0.0" {
		t.Errorf("got %s %s, want Flask 3.0.0", pkg.Name, pkg.Version)
	}
	if pkg.RequiresPython != ">=3.8" {
		t.Errorf("RequiresPython = %q", pkg.RequiresPython)
	}
	if len(pkg.RequiresDist) != 3 {
		t.Errorf("RequiresDist = %v, want 3 raw entries", pkg.RequiresDist)
	}
	if pkg.License != "BSD License" {
		t.Errorf("License = %q, want BSD License", pkg.License)
	}
}

func TestClient_FetchPackage_Pinned(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(flaskHandler(&hits))
	defer server.Close()

	c := testClient(t, server.URL, nil)

	pkg, err := c.FetchPackage(context.Background(), "flask", "2.0.0", false)
	if err != nil {
		t.Fatalf("FetchPackage failed: %v", err)
	}
	if pkg.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", pkg.Version)
	}
}

func TestClient_FetchPackage_EmptySelectorIsLatest(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(flaskHandler(&hits))
	defer server.Close()

	c := testClient(t, server.URL, nil)

	pkg, err := c.FetchPackage(context.Background(), "flask", "", false)
	if err != nil {
		t.Fatalf("FetchPackage failed: %v", err)
	}
	if pkg.Version != "3.0.0" {
		t.Errorf("Version = %q, want 3.0.0", pkg.Version)
	}
}

func TestClient_FetchPackage_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := testClient(t, server.URL, nil)

	_, err := c.FetchPackage(context.Background(), "missing-pkg", "latest", true)
	if err == nil {
		t.Fatal("expected error for missing package")
	}
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing-pkg") {
		t.Errorf("error %q should name the package", err)
	}
}

func TestClient_FetchPackage_Cached(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(flaskHandler(&hits))
	defer server.Close()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := testClient(t, server.URL, fc)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.FetchPackage(ctx, "flask", "latest", false); err != nil {
			t.Fatalf("FetchPackage #%d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}

	if _, err := c.FetchPackage(ctx, "flask", "latest", true); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits after refresh = %d, want 2", got)
	}

	// Selector is part of the cache key.
	if _, err := c.FetchPackage(ctx, "flask", "2.0.0", false); err != nil {
		t.Fatalf("pinned: %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("server hits after pinned fetch = %d, want 3", got)
	}
}

func TestClient_SetIndexURL(t *testing.T) {
	c := NewClient(nil, time.Hour)
	if c.IndexURL() != DefaultIndexURL {
		t.Errorf("IndexURL() = %q, want default", c.IndexURL())
	}
	c.SetIndexURL("https://mirror.example/pypi/")
	if c.IndexURL() != "https://mirror.example/pypi" {
		t.Errorf("IndexURL() = %q", c.IndexURL())
	}
	c.SetIndexURL("")
	if c.IndexURL() != DefaultIndexURL {
		t.Errorf("IndexURL() = %q, want default", c.IndexURL())
	}
}

func TestReleaseURL(t *testing.T) {
	c := NewClient(nil, time.Hour)
	c.SetIndexURL("http://idx")
	tests := []struct {
		name, selector, want string
	}{
		{"requests", "latest", "http://idx/requests/json"},
		{"requests", "2.31.0", "http://idx/requests/2.31.0/json"},
	}
	for _, tt := range tests {
		if got := c.releaseURL(tt.name, tt.selector); got != tt.want {
			t.Errorf("releaseURL(%q, %q) = %q, want %q", tt.name, tt.selector, got, tt.want)
		}
	}
}

func TestExtractLicenseType(t *testing.T) {
	tests := []struct {
		name        string
		license     string
		classifiers []string
		want        string
	}{
		{"classifier", "", []string{"Programming Language :: Python", "License :: OSI Approved :: MIT License"}, "MIT License"},
		{"short field", " Apache-2.0 ", nil, "Apache-2.0"},
		{"full text", "BSD 3-Clause License\n\nCopyright (c) ...", nil, "BSD 3-Clause License"},
		{"empty", "", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractLicenseType(tt.license, tt.classifiers); got != tt.want {
				t.Errorf("extractLicenseType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func testClient(t *testing.T, serverURL string, backend cache.Cache) *Client {
	t.Helper()
	c := NewClient(backend, time.Hour)
	c.SetIndexURL(serverURL)
	c.SetRetry(1, time.Millisecond)
	return c
}
