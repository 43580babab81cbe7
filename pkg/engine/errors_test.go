package engine

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:    "status",
		Type:     "type_mismatch",
		Value:    123,
		Expected: "String",
		Message:  "status must be a string",
	}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "status") {
		t.Errorf("Error message should contain field name")
	}
	if !strings.Contains(errMsg, "type_mismatch") {
		t.Errorf("Error message should contain type")
	}
	if !strings.Contains(errMsg, "123") {
		t.Errorf("Error message should contain value")
	}

	if err.Code() != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %s", err.Code())
	}

	var _ MutationError = err
}

func TestBackendUnavailableError(t *testing.T) {
	err := &BackendUnavailableError{Backend: "bulk", Reason: "not registered"}

	if !strings.Contains(err.Error(), "bulk") {
		t.Errorf("Error message should contain backend name")
	}
	if err.Code() != "BACKEND_UNAVAILABLE" {
		t.Errorf("Expected code BACKEND_UNAVAILABLE, got %s", err.Code())
	}

	var _ MutationError = err
}

func TestPartialFailureError(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := &PartialFailureError{RowsCommitted: 1000, Cause: cause}

	if !strings.Contains(err.Error(), "1000") {
		t.Errorf("Error message should contain committed count")
	}
	if err.Code() != "PARTIAL_FAILURE" {
		t.Errorf("Expected code PARTIAL_FAILURE, got %s", err.Code())
	}
	if !errors.Is(err, cause) {
		t.Error("PartialFailureError should unwrap to its cause")
	}

	var _ MutationError = err
}

func TestBackendError(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := &BackendError{Operation: "UPDATE", Table: "orders", Cause: cause}

	if !strings.Contains(err.Error(), "orders") {
		t.Errorf("Error message should contain table")
	}
	if err.Code() != "BACKEND_ERROR" {
		t.Errorf("Expected code BACKEND_ERROR, got %s", err.Code())
	}
	if !errors.Is(err, cause) {
		t.Error("BackendError should unwrap to its cause")
	}

	var _ MutationError = err
}

func TestAsEngineError(t *testing.T) {
	if asEngineError(nil, "UPDATE", "orders") != nil {
		t.Error("nil should pass through")
	}

	typed := &ValidationError{Type: "unknown_table"}
	if asEngineError(typed, "UPDATE", "orders") != error(typed) {
		t.Error("typed errors should pass through unwrapped")
	}

	raw := fmt.Errorf("boom")
	wrapped := asEngineError(raw, "UPDATE", "orders")
	var backendErr *BackendError
	if !errors.As(wrapped, &backendErr) {
		t.Fatalf("Expected BackendError, got %T", wrapped)
	}
	if !errors.Is(wrapped, raw) {
		t.Error("wrapped error should unwrap to the original")
	}
}
