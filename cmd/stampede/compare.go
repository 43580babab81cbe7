package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stampede-db/stampede/pkg/engine"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run the same mutation through each strategy and compare timings",
	Long: `Run the given mutation through row-by-row and set-based execution
(and bulk-api when a bulk backend is configured), one after the other,
and report elapsed time and rows affected per strategy.

Each pass mutates rows the previous pass already handled, so only the
first pass reports a non-zero affected count for idempotent updates;
the point of the command is the timing comparison.

Flags are the same as 'stampede run'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runTable == "" {
			return fmt.Errorf("--table is required")
		}

		ctx := context.Background()
		eng, cfg, err := connectEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		kinds := []engine.StrategyKind{engine.StrategyRowByRow, engine.StrategySetBased}
		if cfg.Engine.BulkBackend != "" {
			kinds = append(kinds, engine.StrategyBulkAPI)
		}

		fmt.Println("Strategy comparison")
		fmt.Println("────────────────────────────────────────────")

		for _, kind := range kinds {
			// Requests are consumed once; rebuild per pass.
			req, err := buildCLIRequest(eng)
			if err != nil {
				return err
			}

			forced := kind
			report, err := eng.ExecuteWith(ctx, req, engine.ExecOptions{ForceStrategy: &forced})
			if err != nil {
				color.New(color.FgRed).Printf("  %-12s ", kind)
				fmt.Printf("failed: %v\n", err)
				continue
			}
			fmt.Printf("  %-12s %8d rows  %v\n", kind, report.RowsAffected, report.Elapsed)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().AddFlagSet(runCmd.Flags())
	rootCmd.AddCommand(compareCmd)
}
