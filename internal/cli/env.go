package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipcore/pkg/core/deps/marker"
)

// environment returns the marker environment from config and flags.
func (c *CLI) environment() (marker.Environment, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return marker.Environment{}, err
	}
	return cfg.MarkerEnvironment(), nil
}

// envCommand creates the env command.
func (c *CLI) envCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the marker environment used for resolution",
		Long: `Print the environment marker values used for resolution.

Values start from the running host, then apply the [environment] table of
the config file, then the --python-version, --platform, --machine,
--implementation and --os-name flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.environment()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(env)
			}
			for _, name := range marker.Variables {
				fmt.Fprintln(c.out, keyValue(name, env.Lookup(name)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
