package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/logging"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and fixtures without serving",
	Long: `Load the configuration, parse every fixture and register every route,
exactly as serve does before binding. Exits non-zero on the first problem.`,
	Example: `  stubd validate --config stubd.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, table, err := cfg.Build(logging.Nop())
		if err != nil {
			return err
		}
		warnUnusedFixtures(cmd.ErrOrStderr(), store, table)

		source := cfg.Path()
		if source == "" {
			source = "default configuration"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d fixtures, %d routes\n",
			source, len(store.Names()), table.Len())
		return nil
	},
}
