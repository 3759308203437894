package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pipcore/pkg/core/deps/marker"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), Filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.IndexURL != "https://pypi.org/pypi" {
		t.Errorf("IndexURL = %q", cfg.IndexURL)
	}
	if cfg.Concurrency != 10 {
		t.Errorf("Concurrency = %d, want 10", cfg.Concurrency)
	}
	if cfg.CacheTTL.Duration != 24*time.Hour {
		t.Errorf("CacheTTL = %s, want 24h", cfg.CacheTTL)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Redis.Addr = %q, want disabled", cfg.Redis.Addr)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
index_url = "https://mirror.example/pypi"
timeout = "30s"
concurrency = 4

[redis]
addr = "localhost:6379"
db = 2

[environment]
python_version = "3.12"
platform = "win32"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IndexURL != "https://mirror.example/pypi" {
		t.Errorf("IndexURL = %q", cfg.IndexURL)
	}
	if cfg.Timeout.Duration != 30*time.Second {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d", cfg.Concurrency)
	}
	// Unset fields keep their defaults.
	if cfg.Retries != Default().Retries || cfg.CacheTTL != Default().CacheTTL {
		t.Errorf("defaults lost: retries=%d ttl=%s", cfg.Retries, cfg.CacheTTL)
	}
	if cfg.Redis.Prefix != "pipcore:" {
		t.Errorf("Redis.Prefix = %q, want default", cfg.Redis.Prefix)
	}

	rc := cfg.RedisConfig()
	if rc.Addr != "localhost:6379" || rc.DB != 2 {
		t.Errorf("RedisConfig() = %+v", rc)
	}

	env := cfg.MarkerEnvironment()
	if env.PythonVersion != "3.12" || env.Platform != "win32" {
		t.Errorf("MarkerEnvironment() = %+v", env)
	}
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IndexURL != Default().IndexURL {
		t.Errorf("missing file should give defaults, got %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "index_url = "},
		{"bad duration", `timeout = "soon"`},
		{"bad url", `index_url = "ftp://example.com"`},
		{"zero concurrency", "concurrency = 0"},
		{"zero retries", "retries = 0"},
		{"negative ttl", `cache_ttl = "-1h"`},
		{"bad python", "[environment]\npython_version = \"latest\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !perrors.Is(err, perrors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestEnvironment_Apply(t *testing.T) {
	base := marker.Current().WithPlatform("linux").WithPythonVersion("3.11")

	env := Environment{}.Apply(base)
	if env != base {
		t.Errorf("empty overlay changed env: %+v", env)
	}

	env = Environment{
		PythonVersion:  "3.9.18",
		Platform:       "darwin",
		Implementation: "PyPy",
		Machine:        "arm64",
		OSName:         "posix",
	}.Apply(base)
	if env.PythonVersion != "3.9" || env.PythonFullVersion != "3.9.18" {
		t.Errorf("python = %q / %q", env.PythonVersion, env.PythonFullVersion)
	}
	if env.Platform != "darwin" || env.PlatformSystem != "Darwin" {
		t.Errorf("platform = %q / %q", env.Platform, env.PlatformSystem)
	}
	if env.Implementation != "pypy" || env.Architecture != "arm64" || env.OSName != "posix" {
		t.Errorf("env = %+v", env)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join("/tmp/xdg", "pipcore", "config.toml") {
		t.Errorf("DefaultPath() = %q", p)
	}

	t.Setenv(EnvPath, "/etc/pipcore.toml")
	if p, _ := DefaultPath(); p != "/etc/pipcore.toml" {
		t.Errorf("DefaultPath() with %s = %q", EnvPath, p)
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 3
	cfg.Timeout = Duration{45 * time.Second}

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), `timeout = "45s"`) {
		t.Errorf("output missing duration string:\n%s", buf.String())
	}

	got, err := Load(writeConfig(t, buf.String()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Concurrency != 3 || got.Timeout.Duration != 45*time.Second {
		t.Errorf("round trip = %+v", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/cache"); got != filepath.Join(home, "cache") {
		t.Errorf("expandHome(~/cache) = %q", got)
	}
	if got := expandHome("/abs"); got != "/abs" {
		t.Errorf("expandHome(/abs) = %q", got)
	}
}
