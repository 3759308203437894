package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipcore/pkg/core/lockfile"
)

// lockOpts holds the command-line flags for the lock command.
type lockOpts struct {
	input  inputOpts
	output string // lock file path
}

// lockCommand creates the lock command and its check subcommand.
func (c *CLI) lockCommand() *cobra.Command {
	opts := lockOpts{output: lockfile.DefaultFilename}

	cmd := &cobra.Command{
		Use:   "lock [REQUIREMENT...]",
		Short: "Resolve requirements and write a lock file",
		Example: `  pipcore lock -r requirements.txt
  pipcore lock "django>=4.2" -o django-lock.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLock(cmd.Context(), args, &opts)
		},
	}

	opts.input.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "lock file to write")

	cmd.AddCommand(c.lockCheckCommand())
	return cmd
}

func (c *CLI) runLock(ctx context.Context, args []string, opts *lockOpts) error {
	logger := loggerFromContext(ctx)

	reqs, constraints, err := opts.input.load(args, logger)
	if err != nil {
		return err
	}
	res, err := c.resolve(ctx, reqs, constraints, true)
	if err != nil {
		return err
	}

	lf := lockfile.FromPackages(res.packages, res.env.PythonVersion)
	if err := lf.Validate(); err != nil {
		return err
	}
	if err := lf.Save(opts.output); err != nil {
		return err
	}

	printSuccess("Locked %s", lf.Summary())
	printFile(opts.output)
	printStats(len(res.packages), res.stats)
	printNextStep("Verify with", "pipcore lock check "+opts.output)
	return nil
}

// lockCheckCommand creates the "lock check" subcommand.
func (c *CLI) lockCheckCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a lock file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := lockfile.Load(args[0])
			if err != nil {
				return err
			}
			if err := lf.Validate(); err != nil {
				printError("%s is invalid", args[0])
				return err
			}
			printSuccess("%s: %s", args[0], lf.Summary())
			printDetail("format %s, generated %s", lf.Version, lf.GeneratedAt)
			if list {
				rows := make([]resolvedPackage, 0, len(lf.Packages))
				for _, p := range lf.ToPackages() {
					rows = append(rows, resolvedPackage{Name: p.Name, Version: p.Version})
				}
				printPackages(c.out, rows)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "list locked packages")
	return cmd
}
