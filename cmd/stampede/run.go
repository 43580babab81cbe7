package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stampede-db/stampede/internal/config"
	"github.com/stampede-db/stampede/pkg/engine"
	_ "github.com/stampede-db/stampede/pkg/engine/bulkpg"
)

var (
	runTable    string
	runDelete   bool
	runFilters  []string
	runSets     []string
	runSetNows  []string
	runStrategy string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a bulk mutation",
	Long: `Execute a bulk UPDATE or DELETE against the configured database.

Filters use field:op:value with op one of eq, neq, lt, gt, le, ge.

Examples:
  stampede run --table orders --where status:eq:New --set status=Archived --set-now updated_at
  stampede run --table orders --where created_on:lt:2024-01-01 --delete
  stampede run --table orders --where status:eq:New --set status=Archived --strategy set-based`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runTable == "" {
			return fmt.Errorf("--table is required")
		}

		ctx := context.Background()
		eng, _, err := connectEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close()

		req, err := buildCLIRequest(eng)
		if err != nil {
			return err
		}

		exec := engine.ExecOptions{}
		if runStrategy != "" {
			kind, err := parseStrategy(runStrategy)
			if err != nil {
				return err
			}
			exec.ForceStrategy = &kind
		}

		report, err := eng.ExecuteWith(ctx, req, exec)
		if report != nil {
			renderReport(report)
		}
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runTable, "table", "", "target table")
	runCmd.Flags().BoolVar(&runDelete, "delete", false, "delete matching rows instead of updating")
	runCmd.Flags().StringArrayVar(&runFilters, "where", nil, "filter predicate field:op:value (repeatable)")
	runCmd.Flags().StringArrayVar(&runSets, "set", nil, "assignment field=value (repeatable)")
	runCmd.Flags().StringArrayVar(&runSetNows, "set-now", nil, "assign execution timestamp to field (repeatable)")
	runCmd.Flags().StringVar(&runStrategy, "strategy", "", "force a strategy: row-by-row, set-based, bulk-api")
	rootCmd.AddCommand(runCmd)
}

// connectEngine loads configuration, connects, and introspects the
// database into a validation schema.
func connectEngine(ctx context.Context) (*engine.Engine, *config.Config, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.NewLoader(workDir).Load()
	if err != nil {
		// No config file: fall back to defaults plus DATABASE_URL.
		cfg = config.Default()
	}

	connConfig, err := cfg.ConnectorConfig()
	if err != nil {
		return nil, nil, err
	}

	eng := engine.NewEngine(cfg.Options())
	if verbose {
		eng.WithDebug(engine.DebugTrace)
	}
	if err := eng.Connect(ctx, connConfig); err != nil {
		return nil, nil, err
	}

	if _, err := eng.Introspect(ctx); err != nil {
		eng.Close()
		return nil, nil, fmt.Errorf("schema introspection failed: %w", err)
	}

	if cfg.Engine.BulkBackend != "" {
		if err := eng.UseBulkBackend(cfg.Engine.BulkBackend); err != nil {
			eng.Close()
			return nil, nil, err
		}
	}
	return eng, cfg, nil
}

func buildCLIRequest(eng *engine.Engine) (*engine.MutationRequest, error) {
	kind := engine.OpUpdate
	if runDelete {
		kind = engine.OpDelete
	}

	builder := engine.NewRequest(runTable, kind)
	for _, raw := range runFilters {
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid --where '%s': use field:op:value", raw)
		}
		builder.Filter(parts[0], engine.Operator(parts[1]), parseScalar(parts[2]))
	}
	for _, raw := range runSets {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --set '%s': use field=value", raw)
		}
		builder.Set(parts[0], parseScalar(parts[1]))
	}
	for _, field := range runSetNows {
		builder.SetNow(field)
	}
	return builder.Build(eng.Schema())
}

// parseScalar guesses the scalar type of a command-line value.
func parseScalar(raw string) interface{} {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts
	}
	return raw
}

func parseStrategy(name string) (engine.StrategyKind, error) {
	switch name {
	case "row-by-row":
		return engine.StrategyRowByRow, nil
	case "set-based":
		return engine.StrategySetBased, nil
	case "bulk-api":
		return engine.StrategyBulkAPI, nil
	}
	return 0, fmt.Errorf("unknown strategy '%s'", name)
}
