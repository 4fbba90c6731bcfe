package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "insight",
	Short: "Retail sales causal analytics",
	Long: `Insight CLI

Estimates what drives daily store revenue (promotions, calendar, weather)
from the sales warehouse, forecasts revenue and serves the results.

Usage:
  go run ./cmd/insight [command]

Examples:
  go run ./cmd/insight analyze --start 2024-01-01 --end 2024-03-31
  go run ./cmd/insight forecast --days 7
  go run ./cmd/insight api
  go run ./cmd/insight scheduler start
  go run ./cmd/insight check`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
