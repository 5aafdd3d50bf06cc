package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newTablesCmd creates the `tables` command: dump the effective scoring
// calibration as YAML. The output is the same shape the config file's
// scoring section accepts, so operators can edit and feed it back.
func newTablesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Print the effective scoring calibration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := yaml.Marshal(opts.cfg.Scoring)
			if err != nil {
				return fmt.Errorf("encoding scoring tables: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
