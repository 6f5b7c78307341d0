package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/cli/internal/output"
	"github.com/getmockd/stubd/pkg/route"
)

var routesJSON bool

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table",
	Long: `Print the routes the configuration registers, in match order. Fixtures
are not read; use validate to check them.`,
	Example: `  stubd routes
  stubd routes --config stubd.yaml --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		table := route.NewTable(nil)
		if err := cfg.RegisterRoutes(table); err != nil {
			return err
		}

		defs := table.Routes()
		out := cmd.OutOrStdout()
		if routesJSON {
			views := make([]route.View, 0, len(defs))
			for _, d := range defs {
				views = append(views, d.View())
			}
			return output.JSON(out, views)
		}

		w := output.Table(out)
		fmt.Fprintln(w, "METHOD\tPATH\tBEHAVIOR\tFIXTURE\tDELAY")
		for _, d := range defs {
			fixture, delay := d.Fixture, ""
			if fixture == "" {
				fixture = "-"
			}
			if d.Delay > 0 {
				delay = d.Delay.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Method, d.Pattern, d.Behavior, fixture, delay)
		}
		return w.Flush()
	},
}

func initRoutesCmd() {
	routesCmd.Flags().BoolVar(&routesJSON, "json", false, "Output routes as JSON")
}
