package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dataSource string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bpi",
	Short: "Burger Price Index - weekly city burger price pipeline",
	Long: `Burger Price Index CLI

Collects weekly burger prices per city, computes the index,
and publishes reports, news and newsletters.

Usage:
  go run ./cmd/bpi [command]

Examples:
  go run ./cmd/bpi api
  go run ./cmd/bpi collect
  go run ./cmd/bpi backfill --subject <id> --weeks 4
  go run ./cmd/bpi newsletter backfill --weeks 4
  go run ./cmd/bpi scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dataSource, "data-source", "", "override DATA_SOURCE (postgres|fixture)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
