// Package cli implements the pipcore command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipcore/pkg/buildinfo"
	"github.com/matzehuels/pipcore/pkg/cache"
	"github.com/matzehuels/pipcore/pkg/config"
	"github.com/matzehuels/pipcore/pkg/core/deps/marker"
	"github.com/matzehuels/pipcore/pkg/core/deps/python"
	"github.com/matzehuels/pipcore/pkg/core/resolver"
	"github.com/matzehuels/pipcore/pkg/integrations"
	"github.com/matzehuels/pipcore/pkg/integrations/pypi"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pipcore"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out     io.Writer
	verbose bool
	global  globalOpts
}

// globalOpts holds the persistent flags shared by every command.
type globalOpts struct {
	configPath  string // config file (default: config.DefaultPath)
	noCache     bool   // disable the metadata cache
	redis       string // redis address for a shared cache
	indexURL    string // JSON API root of the package index
	concurrency int    // max in-flight metadata fetches
	refresh     bool   // bypass cached metadata
	env         config.Environment
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output (tables, JSON) to w.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "pipcore resolves Python dependency sets against a package index",
		Long:          `pipcore is a dependency-resolution core for Python packages: it walks requirements breadth-first against PyPI, evaluates environment markers, honors constraints and writes reproducible lock files.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.global.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/pipcore/config.toml)")
	flags.BoolVar(&c.global.noCache, "no-cache", false, "disable the metadata cache")
	flags.StringVar(&c.global.redis, "redis", "", "redis address for a shared metadata cache")
	flags.StringVar(&c.global.indexURL, "index-url", "", "package index JSON API root")
	flags.IntVar(&c.global.concurrency, "concurrency", 0, "max concurrent metadata fetches")
	flags.BoolVar(&c.global.refresh, "refresh", false, "bypass cached metadata")
	flags.StringVar(&c.global.env.PythonVersion, "python-version", "", "target python_version")
	flags.StringVar(&c.global.env.Platform, "platform", "", "target sys_platform (linux, darwin, win32)")
	flags.StringVar(&c.global.env.Machine, "machine", "", "target platform_machine")
	flags.StringVar(&c.global.env.Implementation, "implementation", "", "target implementation_name")
	flags.StringVar(&c.global.env.OSName, "os-name", "", "target os_name")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.lockCommand())
	root.AddCommand(c.envCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the config file and applies flag overrides.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.global.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Default(), nil
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if c.global.indexURL != "" {
		cfg.IndexURL = c.global.indexURL
	}
	if c.global.concurrency > 0 {
		cfg.Concurrency = c.global.concurrency
	}
	if c.global.redis != "" {
		cfg.Redis.Addr = c.global.redis
	}
	cfg.Environment = overlay(cfg.Environment, c.global.env)
	return cfg, cfg.Validate()
}

// overlay returns base with the non-empty fields of top applied.
func overlay(base, top config.Environment) config.Environment {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&base.PythonVersion, top.PythonVersion)
	set(&base.Platform, top.Platform)
	set(&base.Machine, top.Machine)
	set(&base.Implementation, top.Implementation)
	set(&base.OSName, top.OSName)
	return base
}

// =============================================================================
// Factories
// =============================================================================

// newCache opens the metadata cache: none with --no-cache, redis when an
// address is configured, the file cache otherwise. An unreachable redis
// falls back to the file cache.
func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.global.noCache {
		return cache.NewNullCache(), nil
	}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisConfig())
		if err == nil {
			return rc, nil
		}
		c.Logger.Warn("redis unavailable, using file cache", "addr", cfg.Redis.Addr, "err", err)
	}
	return cache.NewFileCache(cfg.CacheDir)
}

// session bundles what a resolving command needs.
type session struct {
	cfg      config.Config
	env      marker.Environment
	backend  cache.Cache
	resolver *resolver.Resolver
}

func (s *session) Close() error {
	return s.backend.Close()
}

// newSession loads config, opens the cache and builds a resolver backed by
// the configured index.
func (c *CLI) newSession(ctx context.Context) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	backend, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := pypi.NewClient(backend, cfg.CacheTTL.Duration)
	client.SetIndexURL(cfg.IndexURL)
	client.SetHTTPClient(integrations.NewHTTPClient(cfg.Timeout.Duration))
	client.SetRetry(cfg.Retries, cache.DefaultDelay)

	env := cfg.MarkerEnvironment()
	r := resolver.New(python.NewSource(client, c.global.refresh), resolver.Options{
		Environment: env,
		Concurrency: cfg.Concurrency,
		Logger:      c.Logger,
	})
	return &session{cfg: cfg, env: env, backend: backend, resolver: r}, nil
}
