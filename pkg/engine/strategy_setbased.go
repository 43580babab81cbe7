package engine

import (
	"context"
	"time"
)

// SetBasedStrategy compiles the whole request into one parameterized
// UPDATE or DELETE and executes it in a single backend round-trip.
// Always correct and always available, but it bypasses row hooks and
// any in-memory representation the caller holds of the same rows, so
// every report carries StaleReadWarning.
type SetBasedStrategy struct {
	backend ExecutionBackend
	debug   *DebugContext
}

func NewSetBasedStrategy(backend ExecutionBackend) *SetBasedStrategy {
	return &SetBasedStrategy{backend: backend}
}

func (s *SetBasedStrategy) Kind() StrategyKind { return StrategySetBased }

// Execute runs the single compiled statement. The statement is one atomic
// backend call: cancellation before submission is a no-op result, after
// submission the call blocks until the backend completes.
func (s *SetBasedStrategy) Execute(ctx context.Context, req *MutationRequest) (*MutationReport, error) {
	start := time.Now()
	report := newReport(StrategySetBased)
	report.StaleReadWarning = true

	if ctx.Err() != nil {
		report.Elapsed = time.Since(start)
		report.Warnings = append(report.Warnings, "cancelled before submission")
		return report, nil
	}

	stmt := compileMutation(req, time.Now().UTC())
	s.debug.sqlf("[SQL] %s %s\n[VALUES] %v\n", req.Kind, req.Table, stmt.Args)
	s.debug.sqlf("%s\n", stmt.SQL)

	affected, err := s.backend.Execute(ctx, stmt.SQL, stmt.Args)
	if err != nil {
		report.Elapsed = time.Since(start)
		return report, asEngineError(err, req.Kind.String(), req.Table)
	}

	report.RowsAffected = affected
	report.Elapsed = time.Since(start)
	s.debug.tracef("[TRACE] %s on %s: %v, %d rows\n", req.Kind, req.Table, report.Elapsed, affected)
	return report, nil
}
