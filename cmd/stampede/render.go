package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/stampede-db/stampede/pkg/engine"
)

// renderReport prints a MutationReport in the CLI's status style.
func renderReport(report *engine.MutationReport) {
	fmt.Println("Mutation report")
	fmt.Println("────────────────────────────────────────────")
	fmt.Printf("  Request:       %s\n", report.RequestID)
	fmt.Printf("  Strategy:      %s\n", report.StrategyUsed)
	fmt.Printf("  Rows affected: %d\n", report.RowsAffected)
	fmt.Printf("  Elapsed:       %v\n", report.Elapsed)

	if report.StaleReadWarning {
		warn := color.New(color.FgYellow, color.Bold)
		warn.Printf("  ⚠ stale reads: ")
		fmt.Println("in-memory rows read before this mutation may be out of date")
	}
	for _, w := range report.Warnings {
		fmt.Printf("  note: %s\n", w)
	}
}
