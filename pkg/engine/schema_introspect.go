package engine

import (
	"context"
	"fmt"
	"strings"
)

const listTablesSQL = `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = 'public'
	AND table_type = 'BASE TABLE'
	ORDER BY table_name
`

const inspectTableSQL = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable,
		EXISTS (
			SELECT 1
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.table_schema = c.table_schema
				AND tc.table_name = c.table_name
				AND tc.constraint_type = 'PRIMARY KEY'
				AND kcu.column_name = c.column_name
		) AS is_primary
	FROM information_schema.columns c
	WHERE c.table_schema = 'public'
		AND c.table_name = $1
	ORDER BY c.ordinal_position
`

// IntrospectSchema builds a validation Schema from the live database.
// With no table names given, every user table in the public schema is
// inspected. This is the usual way to obtain a Schema when no schema
// file is maintained alongside the database.
func IntrospectSchema(ctx context.Context, backend ExecutionBackend, tables ...string) (*Schema, error) {
	if len(tables) == 0 {
		found, err := listTables(ctx, backend)
		if err != nil {
			return nil, err
		}
		tables = found
	}

	schema := &Schema{}
	for _, name := range tables {
		table, err := inspectTable(ctx, backend, name)
		if err != nil {
			return nil, err
		}
		if len(table.Fields) == 0 {
			return nil, fmt.Errorf("table '%s' not found during introspection", name)
		}
		schema.Tables = append(schema.Tables, table)
	}
	return schema, nil
}

func listTables(ctx context.Context, backend ExecutionBackend) ([]string, error) {
	rows, err := backend.Query(ctx, listTablesSQL, nil)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		row, err := rows.Row()
		if err != nil {
			return nil, err
		}
		tables = append(tables, row.String("table_name"))
	}
	return tables, rows.Err()
}

func inspectTable(ctx context.Context, backend ExecutionBackend, name string) (*Table, error) {
	rows, err := backend.Query(ctx, inspectTableSQL, []interface{}{name})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := &Table{
		Name:   name,
		Fields: make(map[string]*Field),
	}

	for rows.Next() {
		row, err := rows.Row()
		if err != nil {
			return nil, err
		}

		column := row.String("column_name")
		table.Fields[column] = &Field{
			Name:       column,
			Type:       fieldTypeFromPostgres(row.String("data_type")),
			Nullable:   strings.EqualFold(row.String("is_nullable"), "YES"),
			PrimaryKey: row.Get("is_primary") == true,
		}
	}
	return table, rows.Err()
}

// fieldTypeFromPostgres maps information_schema data types onto the
// engine's scalar types. Unrecognized types degrade to String, which
// keeps validation permissive rather than rejecting exotic columns.
func fieldTypeFromPostgres(dataType string) FieldType {
	switch strings.ToLower(dataType) {
	case "uuid":
		return FieldTypeUUID
	case "smallint", "integer", "bigint":
		return FieldTypeInt
	case "real", "double precision", "numeric", "decimal":
		return FieldTypeFloat
	case "boolean":
		return FieldTypeBool
	case "timestamp without time zone", "timestamp with time zone", "date":
		return FieldTypeTimestamp
	default:
		return FieldTypeString
	}
}
