// Package bulkpg provides the pgx-based bulk backend. It submits each
// batch as one pipelined round-trip: a pgx.Batch of keyed UPDATEs, or a
// single multi-key DELETE. Importing the package registers the backend
// with the engine under the name "pgx".
package bulkpg

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/stampede-db/stampede/pkg/engine"
)

func init() {
	engine.RegisterBulkBackend("pgx", New)
}

// New builds the bulk backend on top of a postgres execution backend.
// Any other backend type cannot share a pgx pool, which makes this a
// configuration error.
func New(backend engine.ExecutionBackend) (engine.BulkBackend, error) {
	pg, ok := backend.(*engine.PostgresBackend)
	if !ok {
		return nil, &engine.BackendUnavailableError{
			Backend: "pgx",
			Reason:  fmt.Sprintf("requires a postgres execution backend, got %T", backend),
		}
	}
	if !pg.Connector().IsConnected() {
		return nil, &engine.BackendUnavailableError{
			Backend: "pgx",
			Reason:  "connection pool is not open",
		}
	}
	return &Backend{connector: pg.Connector()}, nil
}

// Backend implements engine.BulkBackend with pgx batch pipelining.
type Backend struct {
	connector *engine.Connector
}

// SubmitBatch applies one batch and returns the total affected-row count.
func (b *Backend) SubmitBatch(ctx context.Context, table string, kind engine.OperationKind, rows []engine.BulkRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	if kind == engine.OpDelete {
		return b.submitDeletes(ctx, table, rows)
	}
	return b.submitUpdates(ctx, table, rows)
}

// submitUpdates queues one keyed UPDATE per row and sends them as a
// single pipelined batch.
func (b *Backend) submitUpdates(ctx context.Context, table string, rows []engine.BulkRow) (int64, error) {
	changeFields := sortedFields(rows[0].Changes)
	keyFields := sortedFields(rows[0].Key)
	sql := updateSQL(table, changeFields, keyFields)

	batch := &pgx.Batch{}
	for _, row := range rows {
		args := make([]interface{}, 0, len(changeFields)+len(keyFields))
		for _, field := range changeFields {
			args = append(args, row.Changes[field])
		}
		for _, field := range keyFields {
			args = append(args, row.Key[field])
		}
		batch.Queue(sql, args...)
	}

	results := b.connector.Pool().SendBatch(ctx, batch)
	defer results.Close()

	var affected int64
	for range rows {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("bulk update on '%s' failed: %w", table, err)
		}
		affected += tag.RowsAffected()
	}
	return affected, nil
}

// submitDeletes removes the whole batch with one multi-key statement.
func (b *Backend) submitDeletes(ctx context.Context, table string, rows []engine.BulkRow) (int64, error) {
	keyFields := sortedFields(rows[0].Key)
	if len(keyFields) != 1 {
		return 0, fmt.Errorf("bulk delete on '%s' needs a single-field key, got %d fields", table, len(keyFields))
	}
	pk := keyFields[0]

	keys := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Key[pk])
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = ANY($1)", table, pk)
	tag, err := b.connector.Pool().Exec(ctx, sql, keys)
	if err != nil {
		return 0, fmt.Errorf("bulk delete on '%s' failed: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

func updateSQL(table string, changeFields, keyFields []string) string {
	setClauses := make([]string, 0, len(changeFields))
	param := 1
	for _, field := range changeFields {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, param))
		param++
	}
	whereClauses := make([]string, 0, len(keyFields))
	for _, field := range keyFields {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", field, param))
		param++
	}
	return fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s",
		table, strings.Join(setClauses, ", "), strings.Join(whereClauses, " AND "),
	)
}

func sortedFields(row engine.Row) []string {
	fields := make([]string, 0, len(row))
	for field := range row {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
