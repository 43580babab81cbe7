package engine

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// PostgresBackend implements ExecutionBackend over a pgx connection pool.
type PostgresBackend struct {
	connector *Connector
}

// NewPostgresBackend wraps a connected Connector.
func NewPostgresBackend(connector *Connector) *PostgresBackend {
	return &PostgresBackend{connector: connector}
}

// Connector exposes the underlying connector so bulk backends built on
// pgx can share the pool.
func (b *PostgresBackend) Connector() *Connector {
	return b.connector
}

// Execute runs a parameterized statement and returns the affected-row count.
func (b *PostgresBackend) Execute(ctx context.Context, sql string, args []interface{}) (int64, error) {
	if !b.connector.IsConnected() {
		return 0, &BackendUnavailableError{Backend: "postgres", Reason: "not connected"}
	}

	tag, err := b.connector.Pool().Exec(ctx, sql, args...)
	if err != nil {
		return 0, mapPostgresError(err, "EXECUTE")
	}
	return tag.RowsAffected(), nil
}

// Query runs a parameterized read and returns a lazy cursor over the result.
func (b *PostgresBackend) Query(ctx context.Context, sql string, args []interface{}) (Rows, error) {
	if !b.connector.IsConnected() {
		return nil, &BackendUnavailableError{Backend: "postgres", Reason: "not connected"}
	}

	rows, err := b.connector.Pool().Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPostgresError(err, "QUERY")
	}
	return &pgxRows{rows: rows}, nil
}

// pgxRows adapts pgx.Rows to the engine's lazy cursor. Rows are converted
// one at a time; abandoning the cursor just closes the pgx result.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool {
	return r.rows.Next()
}

func (r *pgxRows) Row() (Row, error) {
	values, err := r.rows.Values()
	if err != nil {
		return nil, mapPostgresError(err, "SCAN")
	}

	row := make(Row, len(values))
	for i, col := range r.rows.FieldDescriptions() {
		row[col.Name] = values[i]
	}
	return row, nil
}

func (r *pgxRows) Err() error {
	return mapPostgresError(r.rows.Err(), "QUERY")
}

func (r *pgxRows) Close() {
	r.rows.Close()
}
