package engine

import (
	"context"
	"fmt"
)

// Options is the full configuration surface of the engine.
type Options struct {
	// RowByRowThreshold is the largest estimated affected-row count for
	// which the row-by-row strategy is still chosen. Below it, per-row
	// overhead is acceptable and row hooks stay available.
	RowByRowThreshold int

	// PreferBulkAPI selects the bulk strategy over set-based SQL for
	// large row-sets, when a bulk backend is registered.
	PreferBulkAPI bool

	// PageSize bounds how many rows the row-by-row strategy materializes
	// at once.
	PageSize int

	// BatchSize bounds how many rows the bulk strategy submits per batch.
	BatchSize int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		RowByRowThreshold: 50,
		PreferBulkAPI:     false,
		PageSize:          500,
		BatchSize:         1000,
	}
}

func (o Options) withDefaults() Options {
	if o.RowByRowThreshold <= 0 {
		o.RowByRowThreshold = 50
	}
	if o.PageSize <= 0 {
		o.PageSize = 500
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 1000
	}
	return o
}

// StrategySelector picks an execution strategy for a request.
// Selection is pure given (request, estimate, options, bulk availability):
// the same inputs always yield the same choice, and the choice is always
// recorded in the MutationReport.
type StrategySelector struct {
	backend ExecutionBackend
	bulk    BulkBackend
	opts    Options
}

// NewStrategySelector builds a selector. bulk may be nil when no bulk
// backend is configured.
func NewStrategySelector(backend ExecutionBackend, bulk BulkBackend, opts Options) *StrategySelector {
	return &StrategySelector{
		backend: backend,
		bulk:    bulk,
		opts:    opts.withDefaults(),
	}
}

// EstimateAffected runs the cheap COUNT(*) for the request's predicates.
func (s *StrategySelector) EstimateAffected(ctx context.Context, req *MutationRequest) (int64, error) {
	stmt := compileCount(req)

	rows, err := s.backend.Query(ctx, stmt.SQL, stmt.Args)
	if err != nil {
		return 0, asEngineError(err, "COUNT", req.Table)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, asEngineError(err, "COUNT", req.Table)
		}
		return 0, &BackendError{
			Operation: "COUNT",
			Table:     req.Table,
			Cause:     fmt.Errorf("count query returned no rows"),
		}
	}

	row, err := rows.Row()
	if err != nil {
		return 0, asEngineError(err, "COUNT", req.Table)
	}
	return row.Int("n"), nil
}

// Select applies the tiered policy:
//
//	estimate ≤ RowByRowThreshold        → row-by-row (hooks stay live)
//	PreferBulkAPI && bulk registered    → bulk-api
//	otherwise                           → set-based
func (s *StrategySelector) Select(estimated int64) StrategyKind {
	if estimated <= int64(s.opts.RowByRowThreshold) {
		return StrategyRowByRow
	}
	if s.opts.PreferBulkAPI && s.bulk != nil {
		return StrategyBulkAPI
	}
	return StrategySetBased
}
