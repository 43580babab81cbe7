package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// mapPostgresError converts PostgreSQL errors into the engine taxonomy.
// Returns the original error wrapped as a BackendError when the code is
// not recognized.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
func mapPostgresError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return &BackendError{Operation: operation, Cause: err}
	}

	switch {
	case pgErr.Code == "42P01": // undefined_table
		return &ValidationError{
			Field:    extractQuotedName(pgErr.Message),
			Type:     "undefined_table",
			Expected: "an existing table",
			Message:  pgErr.Message,
		}

	case pgErr.Code == "42703": // undefined_column
		return &ValidationError{
			Field:    extractQuotedName(pgErr.Message),
			Type:     "undefined_column",
			Expected: "an existing column",
			Message:  pgErr.Message,
		}

	case strings.HasPrefix(pgErr.Code, "08"): // connection exceptions
		return &BackendUnavailableError{
			Backend: "postgres",
			Reason:  pgErr.Message,
		}

	default:
		return &BackendError{
			Operation: operation,
			Cause:     fmt.Errorf("%s (code: %s)", pgErr.Message, pgErr.Code),
		}
	}
}

// extractQuotedName pulls the first quoted identifier out of a message.
// Input: `column "status" of relation "orders" does not exist`
// Output: "status"
func extractQuotedName(message string) string {
	start := strings.Index(message, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(message[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return message[start+1 : start+1+end]
}
