package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPostgresError_UndefinedTable(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:    "42P01",
		Message: `relation "orderz" does not exist`,
	}

	err := mapPostgresError(pgErr, "EXECUTE")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "undefined_table", vErr.Type)
	assert.Equal(t, "orderz", vErr.Field)
}

func TestMapPostgresError_UndefinedColumn(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:    "42703",
		Message: `column "statuz" of relation "orders" does not exist`,
	}

	err := mapPostgresError(pgErr, "EXECUTE")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "undefined_column", vErr.Type)
	assert.Equal(t, "statuz", vErr.Field)
}

func TestMapPostgresError_ConnectionException(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:    "08006",
		Message: "connection failure",
	}

	err := mapPostgresError(pgErr, "QUERY")

	var unavailable *BackendUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestMapPostgresError_UnknownCode(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:    "23505",
		Message: "duplicate key value",
	}

	err := mapPostgresError(pgErr, "EXECUTE")

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Contains(t, err.Error(), "23505")
}

func TestMapPostgresError_NonPostgres(t *testing.T) {
	raw := fmt.Errorf("plain failure")
	err := mapPostgresError(raw, "QUERY")

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.True(t, errors.Is(err, raw))
}

func TestMapPostgresError_Nil(t *testing.T) {
	assert.NoError(t, mapPostgresError(nil, "QUERY"))
}

func TestExtractQuotedName(t *testing.T) {
	assert.Equal(t, "status", extractQuotedName(`column "status" does not exist`))
	assert.Equal(t, "", extractQuotedName("no quotes here"))
	assert.Equal(t, "", extractQuotedName(`unterminated "quote`))
}
