package engine

import (
	"time"

	"github.com/google/uuid"
)

// StrategyKind names the execution strategies.
type StrategyKind int

const (
	StrategyRowByRow StrategyKind = iota
	StrategySetBased
	StrategyBulkAPI
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyRowByRow:
		return "row-by-row"
	case StrategySetBased:
		return "set-based"
	case StrategyBulkAPI:
		return "bulk-api"
	}
	return "unknown"
}

// MutationReport is produced exactly once per executed MutationRequest.
// It is immutable once returned and owned entirely by the caller.
type MutationReport struct {
	// RequestID identifies this execution in logs and debug output.
	RequestID uuid.UUID

	// RowsAffected counts rows actually committed. On PartialFailure this
	// is the committed-so-far count, never the intended count.
	RowsAffected int64

	// StrategyUsed records which strategy ran, including forced choices.
	StrategyUsed StrategyKind

	// Elapsed is wall-clock time from selection to completion.
	Elapsed time.Duration

	// StaleReadWarning is set when the mutation bypassed any in-memory
	// representation the caller may hold of the same rows. The engine
	// surfaces the risk; it never invalidates caches it does not own.
	StaleReadWarning bool

	// Warnings carries non-fatal advisories (estimation fallbacks, etc).
	Warnings []string
}

func newReport(kind StrategyKind) *MutationReport {
	return &MutationReport{
		RequestID:    uuid.New(),
		StrategyUsed: kind,
	}
}
