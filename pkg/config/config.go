// Package config loads pipcore settings from a TOML file.
//
// A missing file is not an error: [Load] returns [Default] values. Fields
// left unset in the file keep their defaults.
//
//	index_url   = "https://pypi.org/pypi"
//	timeout     = "10s"
//	retries     = 3
//	cache_dir   = "~/.cache/pipcore"
//	cache_ttl   = "24h"
//	concurrency = 10
//
//	[redis]
//	addr = "localhost:6379"
//
//	[environment]
//	python_version = "3.12"
//	platform       = "linux"
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pipcore/pkg/cache"
	"github.com/matzehuels/pipcore/pkg/core/deps"
	"github.com/matzehuels/pipcore/pkg/core/deps/marker"
	"github.com/matzehuels/pipcore/pkg/core/resolver"
	perrors "github.com/matzehuels/pipcore/pkg/errors"
	"github.com/matzehuels/pipcore/pkg/integrations"
	"github.com/matzehuels/pipcore/pkg/integrations/pypi"
)

const (
	appName = "pipcore"

	// Filename is the config file name inside the config directory.
	Filename = "config.toml"

	// EnvPath overrides the config file location.
	EnvPath = "PIPCORE_CONFIG"
)

// Config holds all user-tunable settings.
type Config struct {
	IndexURL    string      `toml:"index_url"`
	Timeout     Duration    `toml:"timeout"`
	Retries     int         `toml:"retries"`
	CacheDir    string      `toml:"cache_dir"`
	CacheTTL    Duration    `toml:"cache_ttl"`
	Concurrency int         `toml:"concurrency"`
	Redis       Redis       `toml:"redis"`
	Environment Environment `toml:"environment"`
}

// Redis configures the shared metadata cache. An empty Addr disables it.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// Environment overrides marker variables of the running host.
type Environment struct {
	PythonVersion  string `toml:"python_version,omitempty"`
	Platform       string `toml:"platform,omitempty"`
	Implementation string `toml:"implementation,omitempty"`
	Machine        string `toml:"machine,omitempty"`
	OSName         string `toml:"os_name,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("10s").
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in settings.
func Default() Config {
	dir, _ := cache.DefaultDir() // empty means NewFileCache picks the default again
	return Config{
		IndexURL:    pypi.DefaultIndexURL,
		Timeout:     Duration{integrations.DefaultTimeout},
		Retries:     cache.DefaultAttempts,
		CacheDir:    dir,
		CacheTTL:    Duration{cache.DefaultTTL},
		Concurrency: resolver.DefaultConcurrency,
		Redis:       Redis{Prefix: cache.DefaultRedisPrefix},
	}
}

// DefaultPath returns the config file location: $PIPCORE_CONFIG if set,
// otherwise config.toml under $XDG_CONFIG_HOME/pipcore (or ~/.config/pipcore).
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, Filename), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, Filename), nil
}

// Load reads path over [Default] values and validates the result. A
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "cannot parse %s", path)
	}
	cfg.CacheDir = expandHome(cfg.CacheDir)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range setting as INVALID_CONFIG.
func (c Config) Validate() error {
	if err := perrors.ValidateURL(c.IndexURL); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "index_url %q", c.IndexURL)
	}
	switch {
	case c.Timeout.Duration <= 0:
		return perrors.New(perrors.ErrCodeInvalidConfig, "timeout must be positive, got %s", c.Timeout)
	case c.Retries < 1:
		return perrors.New(perrors.ErrCodeInvalidConfig, "retries must be at least 1, got %d", c.Retries)
	case c.CacheTTL.Duration < 0:
		return perrors.New(perrors.ErrCodeInvalidConfig, "cache_ttl must not be negative, got %s", c.CacheTTL)
	case c.Concurrency < 1:
		return perrors.New(perrors.ErrCodeInvalidConfig, "concurrency must be at least 1, got %d", c.Concurrency)
	case c.Redis.DB < 0:
		return perrors.New(perrors.ErrCodeInvalidConfig, "redis.db must not be negative, got %d", c.Redis.DB)
	}
	if v := c.Environment.PythonVersion; v != "" && deps.ParseVersion(v).Major() == 0 {
		return perrors.New(perrors.ErrCodeInvalidConfig, "environment.python_version %q is not a version", v)
	}
	return nil
}

// MarkerEnvironment overlays the [environment] table onto the running
// host's marker values.
func (c Config) MarkerEnvironment() marker.Environment {
	return c.Environment.Apply(marker.Current())
}

// Apply overlays the non-empty fields of e onto env.
func (e Environment) Apply(env marker.Environment) marker.Environment {
	if e.PythonVersion != "" {
		env = env.WithPythonVersion(e.PythonVersion)
	}
	if e.Platform != "" {
		env = env.WithPlatform(e.Platform)
	}
	if e.Implementation != "" {
		env.Implementation = strings.ToLower(e.Implementation)
	}
	if e.Machine != "" {
		env.Architecture = e.Machine
	}
	if e.OSName != "" {
		env.OSName = e.OSName
	}
	return env
}

// RedisConfig converts the [redis] table for [cache.NewRedisCache].
func (c Config) RedisConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Prefix:   c.Redis.Prefix,
	}
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
