package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipcore/pkg/core/candidate"
	"github.com/matzehuels/pipcore/pkg/core/deps"
	"github.com/matzehuels/pipcore/pkg/core/deps/marker"
	"github.com/matzehuels/pipcore/pkg/core/deps/python"
)

// Install actions reported when --installed is given.
const (
	actionInstall   = "install"   // not installed yet
	actionReuse     = "reuse"     // same version already installed
	actionUpgrade   = "upgrade"   // older version installed
	actionDowngrade = "downgrade" // newer version installed
	actionKeep      = "keep"      // strategy keeps the installed version
)

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	input     inputOpts
	installed string // pip freeze output or poetry.lock
	strategy  string // candidate strategy name
	json      bool   // emit JSON instead of a table
}

// resolvedPackage is one row of resolve output.
type resolvedPackage struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Action    string `json:"action,omitempty"`
	Installed string `json:"installed,omitempty"`
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOpts{strategy: candidate.PreferInstalled.String()}

	cmd := &cobra.Command{
		Use:   "resolve [REQUIREMENT...]",
		Short: "Resolve requirements to a flat set of releases",
		Long: `Resolve requirements breadth-first against the package index.

Requirements come from arguments and -r files (requirements.txt or
pyproject.toml). Dependencies whose environment marker is false for the
target environment are skipped. Releases that cannot be fetched, or that
violate a version clause or constraint, are reported in the log and omitted.`,
		Example: `  pipcore resolve "requests>=2.31" flask
  pipcore resolve -r requirements.txt -c constraints.txt --platform win32
  pipcore resolve -r pyproject.toml --extra test --installed <(pip freeze)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), args, &opts)
		},
	}

	opts.input.register(cmd)
	cmd.Flags().StringVar(&opts.installed, "installed", "", "installed releases (pip freeze output or poetry.lock)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", opts.strategy, "candidate strategy: prefer-installed, prefer-latest, prefer-compatible")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")

	return cmd
}

func (c *CLI) runResolve(ctx context.Context, args []string, opts *resolveOpts) error {
	logger := loggerFromContext(ctx)

	strategy, err := candidate.ParseStrategy(opts.strategy)
	if err != nil {
		return err
	}
	reqs, constraints, err := opts.input.load(args, logger)
	if err != nil {
		return err
	}

	var selector *candidate.Selector
	if opts.installed != "" {
		installed, err := python.LoadInstalled(opts.installed)
		if err != nil {
			return err
		}
		selector = candidate.NewSelector()
		for _, p := range installed {
			selector.RegisterInstalled(p, false)
		}
		logger.Debug("installed releases", "count", len(installed), "source", opts.installed)
	}

	res, err := c.resolve(ctx, reqs, constraints, !opts.json)
	if err != nil {
		return err
	}

	rows := plan(res.packages, selector, strategy)
	if opts.json {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	printPackages(c.out, rows)
	printStats(len(res.packages), res.stats)
	if n := res.stats.failures.Load(); n > 0 {
		printWarning("%d releases could not be fetched and were omitted", n)
	}
	return nil
}

// resolution is the outcome of one resolve run.
type resolution struct {
	packages []*deps.Package
	env      marker.Environment
	stats    *runStats
}

// resolve runs one resolution with a fresh session. With status set, a
// spinner and a success line are shown.
func (c *CLI) resolve(ctx context.Context, reqs, constraints []deps.Requirement, status bool) (*resolution, error) {
	s, err := c.newSession(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	stats := &runStats{}
	defer stats.install()()

	s.resolver.SetConstraints(constraints)

	prog := newProgress(loggerFromContext(ctx))
	var spinner *Spinner
	if status && !c.verbose {
		spinner = newSpinner(ctx, os.Stderr, fmt.Sprintf("Resolving %d requirements...", len(reqs)), stats.fetches.Load)
		spinner.Start()
	}

	pkgs, err := s.resolver.Resolve(ctx, reqs)
	if spinner != nil {
		if err != nil {
			spinner.StopWithError("Resolution failed")
		} else {
			spinner.Stop()
		}
	}
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Resolved %d packages for Python %s on %s", len(pkgs), s.env.PythonVersion, s.env.Platform))
	return &resolution{packages: pkgs, env: s.env, stats: stats}, nil
}

// plan pairs each resolved release with an install action. Without a
// selector every row has an empty action.
func plan(pkgs []*deps.Package, selector *candidate.Selector, strategy candidate.Strategy) []resolvedPackage {
	byName := make(map[string][]candidate.Candidate)
	if selector != nil {
		for _, inst := range selector.Installed() {
			name := deps.NormalizeName(inst.Package.Name)
			byName[name] = append(byName[name], inst)
		}
	}

	rows := make([]resolvedPackage, 0, len(pkgs))
	for _, p := range pkgs {
		row := resolvedPackage{Name: p.Name, Version: p.Version}
		if selector != nil {
			row.Action, row.Installed = action(p, byName[deps.NormalizeName(p.Name)], selector, strategy)
		}
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b resolvedPackage) int {
		return strings.Compare(deps.NormalizeName(a.Name), deps.NormalizeName(b.Name))
	})
	return rows
}

func action(p *deps.Package, installed []candidate.Candidate, selector *candidate.Selector, strategy candidate.Strategy) (string, string) {
	if len(installed) == 0 {
		return actionInstall, ""
	}
	if selector.CanReuseInstalled(p.Name, p.Version, "", false) {
		return actionReuse, p.Version
	}
	candidates := append([]candidate.Candidate{{Package: p}}, installed...)
	best, _ := selector.SelectBest(candidates, strategy)
	have := installed[0].Package.Version
	if best.Installed {
		return actionKeep, best.Package.Version
	}
	if deps.CompareVersions(p.Version, have) > 0 {
		return actionUpgrade, have
	}
	return actionDowngrade, have
}
