package engine

import (
	"context"
	"time"
)

// BulkAPIStrategy projects matching rows down to (key + changed fields)
// tuples and hands them to a registered BulkBackend in fixed-size batches.
// Batches are submitted in primary-key order, so "successful batches before
// the failure" is well-defined when a batch fails mid-run.
type BulkAPIStrategy struct {
	backend ExecutionBackend
	bulk    BulkBackend
	schema  *Schema
	opts    Options
	debug   *DebugContext
}

// NewBulkAPIStrategy fails eagerly when no bulk backend is registered.
// That is a configuration error, never discovered mid-run.
func NewBulkAPIStrategy(backend ExecutionBackend, bulk BulkBackend, schema *Schema, opts Options) (*BulkAPIStrategy, error) {
	if bulk == nil {
		return nil, &BackendUnavailableError{
			Backend: "bulk",
			Reason:  "no bulk backend registered",
		}
	}
	return &BulkAPIStrategy{
		backend: backend,
		bulk:    bulk,
		schema:  schema,
		opts:    opts.withDefaults(),
	}, nil
}

func (s *BulkAPIStrategy) Kind() StrategyKind { return StrategyBulkAPI }

func (s *BulkAPIStrategy) Execute(ctx context.Context, req *MutationRequest) (*MutationReport, error) {
	start := time.Now()
	report := newReport(StrategyBulkAPI)
	report.StaleReadWarning = true

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
	pk, err := rowAddressKey(table, "bulk execution")
	if err != nil {
		report.Elapsed = time.Since(start)
		return report, err
	}

	now := time.Now().UTC()
	fields, values := resolveAssignments(req.Assignments, now)
	changes := make(Row, len(fields))
	for _, field := range fields {
		changes[field] = values[field]
	}

	var committed int64
	var after interface{}
	batch := make([]BulkRow, 0, s.opts.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		s.debug.sqlf("[BULK] %s %s: submitting %d rows\n", req.Kind, req.Table, len(batch))
		n, err := s.bulk.SubmitBatch(ctx, req.Table, req.Kind, batch)
		if err != nil {
			return err
		}
		committed += n
		batch = batch[:0]
		return nil
	}

	for {
		// Cancellation is honored between batches.
		if err := ctx.Err(); err != nil {
			report.RowsAffected = committed
			report.Elapsed = time.Since(start)
			return report, &PartialFailureError{RowsCommitted: committed, Cause: err}
		}

		stmt := compilePage(req, pk, []string{pk}, after, s.opts.BatchSize)
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

		for _, row := range page {
			batch = append(batch, BulkRow{
				Key:     Row{pk: row.Get(pk)},
				Changes: changes,
			})
		}
		if err := flush(); err != nil {
			report.RowsAffected = committed
			report.Elapsed = time.Since(start)
			return report, &PartialFailureError{RowsCommitted: committed, Cause: err}
		}

		after = page[len(page)-1].Get(pk)
		if len(page) < s.opts.BatchSize {
			break
		}
	}

	report.RowsAffected = committed
	report.Elapsed = time.Since(start)
	s.debug.tracef("[TRACE] %s on %s: %v, %d rows (bulk)\n", req.Kind, req.Table, report.Elapsed, committed)
	return report, nil
}
