package engine

import "fmt"

// ============================================================
// ERROR TAXONOMY
// ============================================================

// MutationError is implemented by every typed error the engine produces.
type MutationError interface {
	error
	Code() string
}

// ValidationError reports a malformed request. Local, never retried.
type ValidationError struct {
	Field    string
	Type     string
	Value    interface{}
	Expected string
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"validation failed on '%s' (%s): %s\nGot: %v\nExpected: %s",
		e.Field, e.Type, e.Message, e.Value, e.Expected,
	)
}

func (e *ValidationError) Code() string { return "VALIDATION_ERROR" }

// BackendUnavailableError reports a configuration-time failure:
// a required backend is missing or unreachable. Fatal, surfaced eagerly.
type BackendUnavailableError struct {
	Backend string
	Reason  string
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend '%s' unavailable: %s", e.Backend, e.Reason)
}

func (e *BackendUnavailableError) Code() string { return "BACKEND_UNAVAILABLE" }

// PartialFailureError reports a mid-run failure after some rows were
// already committed. RowsCommitted counts rows actually persisted, never
// rows intended. The engine never retries; retrying an UPDATE/DELETE
// without idempotency guarantees could double-apply.
type PartialFailureError struct {
	RowsCommitted int64
	Cause         error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("mutation failed after %d rows committed: %v", e.RowsCommitted, e.Cause)
}

func (e *PartialFailureError) Code() string { return "PARTIAL_FAILURE" }

func (e *PartialFailureError) Unwrap() error { return e.Cause }

// BackendError wraps any underlying store failure. Not retried internally.
type BackendError struct {
	Operation string
	Table     string
	Cause     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s on '%s' failed: %v", e.Operation, e.Table, e.Cause)
}

func (e *BackendError) Code() string { return "BACKEND_ERROR" }

func (e *BackendError) Unwrap() error { return e.Cause }

// asEngineError wraps err in a BackendError unless it already carries a code.
func asEngineError(err error, op, table string) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(MutationError); ok {
		return err
	}
	return &BackendError{Operation: op, Table: table, Cause: err}
}
