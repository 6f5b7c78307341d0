package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	configFile string
	logLevel   string
	logFormat  string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stubd",
	Short: "stubd is a configurable stub HTTP server",
	Long: `stubd serves canned JSON fixtures from memory over HTTP. Routes can
delay, inject failures, acknowledge request bodies, or write a path parameter
into the first record of a fixture before serving it.

Routes and fixtures come from a YAML or JSON file given with --config. Without
one, stubd serves the stock car and rental routes over example1.json and
example2.json in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(Main())
}

// Main runs the root command and returns the process exit code.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML or JSON configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(serveCmd, validateCmd, routesCmd, versionCmd)
	initServeCmd()
	initRoutesCmd()
	initVersionCmd()
}
