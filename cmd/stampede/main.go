package main

import (
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "stampede",
	Short: "Bulk mutation execution engine for PostgreSQL",
	Long: `stampede executes bulk UPDATE/DELETE requests against PostgreSQL,
choosing between row-by-row, set-based, and bulk-API execution based on
the estimated affected-row count.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
