package engine

import "context"

// ============================================================
// BACKEND CAPABILITY INTERFACES
// ============================================================

// ExecutionBackend is the minimal capability the engine needs from a
// SQL-capable store. Statements are always parameterized; implementations
// must bind args rather than interpolate them into the SQL text.
type ExecutionBackend interface {
	// Execute runs a non-query statement and returns the affected-row count.
	Execute(ctx context.Context, sql string, args []interface{}) (int64, error)

	// Query runs a read and returns a lazy, single-pass cursor.
	// Abandoning the cursor early via Close is always safe.
	Query(ctx context.Context, sql string, args []interface{}) (Rows, error)
}

// Rows is a lazy cursor over a finite result set.
type Rows interface {
	// Next advances to the next row, returning false when exhausted.
	Next() bool

	// Row returns the current row. Only valid after Next returned true.
	Row() (Row, error)

	// Err returns the first error encountered during iteration.
	Err() error

	// Close releases the cursor. Safe to call more than once.
	Close()
}

// ============================================================
// BULK BACKEND
// ============================================================

// BulkRow is the minimal projection submitted to a bulk backend:
// the row's key fields plus only the fields being changed.
type BulkRow struct {
	Key     Row
	Changes Row
}

// BulkBackend is an optional high-throughput write path. Implementations
// may use batched multi-row statements, bulk-load mechanisms, or vendor
// SDKs; the engine only requires per-batch affected-row counts.
type BulkBackend interface {
	// SubmitBatch applies one batch of rows and returns how many were affected.
	SubmitBatch(ctx context.Context, table string, kind OperationKind, rows []BulkRow) (int64, error)
}

// ============================================================
// STRATEGY
// ============================================================

// Strategy executes a MutationRequest against a backend. Each strategy
// owns its full execution path; there is no shared tracking state.
type Strategy interface {
	Kind() StrategyKind

	// Execute consumes the request and produces a report. On PartialFailure
	// the returned report still carries the rows committed so far.
	Execute(ctx context.Context, req *MutationRequest) (*MutationReport, error)
}
