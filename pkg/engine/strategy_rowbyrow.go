package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RowByRowStrategy materializes matching rows page by page and persists
// each mutation individually: one UPDATE per row, one DELETE per page of
// keys. Slow by design. It is the only strategy that runs row hooks, which
// is why the selector keeps it for low-cardinality requests.
type RowByRowStrategy struct {
	backend ExecutionBackend
	schema  *Schema
	opts    Options
	hooks   []RowHook
	debug   *DebugContext
}

func NewRowByRowStrategy(backend ExecutionBackend, schema *Schema, opts Options, hooks []RowHook) *RowByRowStrategy {
	return &RowByRowStrategy{
		backend: backend,
		schema:  schema,
		opts:    opts.withDefaults(),
		hooks:   hooks,
	}
}

func (s *RowByRowStrategy) Kind() StrategyKind { return StrategyRowByRow }

// rowAddressKey resolves the single column rows are addressed by.
// Tables without a primary key, or with a composite one, are rejected
// before any row is read: addressing by one column of a composite key
// would mutate rows the predicate excludes.
func rowAddressKey(table *Table, purpose string) (string, error) {
	keys := table.PrimaryKeys()
	switch len(keys) {
	case 1:
		return keys[0], nil
	case 0:
		return "", &ValidationError{
			Field:    table.Name,
			Type:     "no_primary_key",
			Expected: "a table with a primary key",
			Message:  fmt.Sprintf("%s needs a primary key to address rows", purpose),
		}
	default:
		return "", &ValidationError{
			Field:    table.Name,
			Type:     "composite_primary_key",
			Value:    strings.Join(keys, ", "),
			Expected: "a single-column primary key",
			Message:  fmt.Sprintf("%s cannot address rows of a composite-key table", purpose),
		}
	}
}

// Execute pages through matching rows by primary key, so rows mutated in
// earlier pages are never revisited. On any failure after rows were
// committed the report still carries the committed count.
func (s *RowByRowStrategy) Execute(ctx context.Context, req *MutationRequest) (*MutationReport, error) {
	start := time.Now()
	report := newReport(StrategyRowByRow)

	table := s.schema.GetTable(req.Table)
	if table == nil {
		report.Elapsed = time.Since(start)
		return report, &ValidationError{
			Field:   req.Table,
			Type:    "unknown_table",
			Value:   req.Table,
			Message: "table is not part of the target schema",
		}
	}
	pk, err := rowAddressKey(table, "row-by-row execution")
	if err != nil {
		report.Elapsed = time.Since(start)
		return report, err
	}

	now := time.Now().UTC()
	fields, values := resolveAssignments(req.Assignments, now)

	var committed int64
	var after interface{}

	for {
		// Cancellation is honored between pages, never mid-page.
		if err := ctx.Err(); err != nil {
			report.RowsAffected = committed
			report.Elapsed = time.Since(start)
			return report, &PartialFailureError{RowsCommitted: committed, Cause: err}
		}

		stmt := compilePage(req, pk, []string{"*"}, after, s.opts.PageSize)
		s.debug.sqlf("[SQL] %s\n[VALUES] %v\n", stmt.SQL, stmt.Args)

		page, err := collectRows(ctx, s.backend, stmt)
		if err != nil {
			report.RowsAffected = committed
			report.Elapsed = time.Since(start)
			if committed > 0 {
				return report, &PartialFailureError{RowsCommitted: committed, Cause: err}
			}
			return report, asEngineError(err, "SELECT", req.Table)
		}
		if len(page) == 0 {
			break
		}

		var n int64
		if req.Kind == OpUpdate {
			n, err = s.persistUpdates(ctx, req, pk, fields, values, page)
		} else {
			n, err = s.persistDeletes(ctx, req, pk, page)
		}
		committed += n
		if err != nil {
			report.RowsAffected = committed
			report.Elapsed = time.Since(start)
			return report, &PartialFailureError{RowsCommitted: committed, Cause: err}
		}

		after = page[len(page)-1].Get(pk)
		s.debug.tracef("[TRACE] %s page done, %d rows committed, cursor %s\n", req.Table, committed, keyString(after))
		if len(page) < s.opts.PageSize {
			break
		}
	}

	report.RowsAffected = committed
	report.Elapsed = time.Since(start)
	s.debug.tracef("[TRACE] %s on %s: %v, %d rows (row-by-row)\n", req.Kind, req.Table, report.Elapsed, committed)
	return report, nil
}

// persistUpdates issues one UPDATE per row, running hooks first.
func (s *RowByRowStrategy) persistUpdates(ctx context.Context, req *MutationRequest, pk string, fields []string, values map[string]interface{}, page []Row) (int64, error) {
	var committed int64
	for _, row := range page {
		if err := runHooks(ctx, s.hooks, req.Table, row); err != nil {
			return committed, err
		}

		stmt := compileRowUpdate(req.Table, pk, fields, values, row.Get(pk))
		n, err := s.backend.Execute(ctx, stmt.SQL, stmt.Args)
		if err != nil {
			return committed, err
		}
		committed += n
	}
	return committed, nil
}

// persistDeletes runs hooks for every row in the page, then deletes the
// whole page by key in one statement.
func (s *RowByRowStrategy) persistDeletes(ctx context.Context, req *MutationRequest, pk string, page []Row) (int64, error) {
	keys := make([]interface{}, 0, len(page))
	for _, row := range page {
		if err := runHooks(ctx, s.hooks, req.Table, row); err != nil {
			return 0, err
		}
		keys = append(keys, row.Get(pk))
	}

	stmt := compileKeyDelete(req.Table, pk, keys)
	n, err := s.backend.Execute(ctx, stmt.SQL, stmt.Args)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// collectRows drains one page from a lazy cursor.
func collectRows(ctx context.Context, backend ExecutionBackend, stmt statement) ([]Row, error) {
	rows, err := backend.Query(ctx, stmt.SQL, stmt.Args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var page []Row
	for rows.Next() {
		row, err := rows.Row()
		if err != nil {
			return nil, err
		}
		page = append(page, row)
	}
	return page, rows.Err()
}
