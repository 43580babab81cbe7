package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash"
)

// statement is a parameterized SQL statement ready for a backend.
type statement struct {
	SQL  string
	Args []interface{}
}

// stmtCache memoizes generated SQL text by statement shape, so repeated
// requests with the same (table, kind, fields, operators) reuse the text
// and the backend can reuse its plan. Bound values are never cached.
var stmtCache = struct {
	sync.Mutex
	byShape map[uint64]string
}{byShape: make(map[uint64]string)}

func cachedSQL(shape string, build func() string) string {
	key := xxhash.Sum64String(shape)

	stmtCache.Lock()
	defer stmtCache.Unlock()

	if sql, ok := stmtCache.byShape[key]; ok {
		return sql
	}
	sql := build()
	stmtCache.byShape[key] = sql
	return sql
}

// resolveAssignments orders assignment fields deterministically and
// resolves SetNow sentinels against a single per-request timestamp.
func resolveAssignments(assignments []Assignment, now time.Time) ([]string, map[string]interface{}) {
	fields := make([]string, 0, len(assignments))
	values := make(map[string]interface{}, len(assignments))
	for _, a := range assignments {
		fields = append(fields, a.Field)
		if a.Now {
			values[a.Field] = now
		} else {
			values[a.Field] = a.Value
		}
	}
	sort.Strings(fields)
	return fields, values
}

// whereClause renders the predicate conjunction in the order supplied.
// Order affects SQL text only; predicates are commutative under AND.
func whereClause(preds PredicateSet, paramIndex int) (string, []interface{}, int) {
	if len(preds) == 0 {
		return "", nil, paramIndex
	}

	clauses := make([]string, 0, len(preds))
	args := make([]interface{}, 0, len(preds))
	for _, p := range preds {
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", p.Field, p.Op.sql(), paramIndex))
		args = append(args, p.Value)
		paramIndex++
	}
	return strings.Join(clauses, " AND "), args, paramIndex
}

func predicateShape(preds PredicateSet) string {
	var b strings.Builder
	for _, p := range preds {
		b.WriteString(p.Field)
		b.WriteByte(':')
		b.WriteString(string(p.Op))
		b.WriteByte(';')
	}
	return b.String()
}

// compileMutation produces the single set-based UPDATE or DELETE for a request.
func compileMutation(req *MutationRequest, now time.Time) statement {
	switch req.Kind {
	case OpUpdate:
		fields, values := resolveAssignments(req.Assignments, now)

		shape := "update|" + req.Table + "|" + strings.Join(fields, ",") + "|" + predicateShape(req.Predicates)
		var args []interface{}
		sql := cachedSQL(shape, func() string {
			setClauses := make([]string, 0, len(fields))
			for i, field := range fields {
				setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, i+1))
			}
			where, _, _ := whereClause(req.Predicates, len(fields)+1)
			sql := fmt.Sprintf("UPDATE %s SET %s", req.Table, strings.Join(setClauses, ", "))
			if where != "" {
				sql += " WHERE " + where
			}
			return sql
		})

		for _, field := range fields {
			args = append(args, values[field])
		}
		_, whereArgs, _ := whereClause(req.Predicates, len(fields)+1)
		args = append(args, whereArgs...)
		return statement{SQL: sql, Args: args}

	default:
		shape := "delete|" + req.Table + "|" + predicateShape(req.Predicates)
		sql := cachedSQL(shape, func() string {
			where, _, _ := whereClause(req.Predicates, 1)
			sql := "DELETE FROM " + req.Table
			if where != "" {
				sql += " WHERE " + where
			}
			return sql
		})
		_, args, _ := whereClause(req.Predicates, 1)
		return statement{SQL: sql, Args: args}
	}
}

// compileCount produces the cheap COUNT(*) used for strategy selection.
func compileCount(req *MutationRequest) statement {
	shape := "count|" + req.Table + "|" + predicateShape(req.Predicates)
	sql := cachedSQL(shape, func() string {
		where, _, _ := whereClause(req.Predicates, 1)
		sql := "SELECT COUNT(*) AS n FROM " + req.Table
		if where != "" {
			sql += " WHERE " + where
		}
		return sql
	})
	_, args, _ := whereClause(req.Predicates, 1)
	return statement{SQL: sql, Args: args}
}

// compilePage produces one keyset-paginated page of matching rows,
// ordered by primary key so pages stay stable while rows mutate.
// columns lists the projected fields; after is the exclusive lower key
// bound, nil for the first page.
func compilePage(req *MutationRequest, pk string, columns []string, after interface{}, limit int) statement {
	where, args, next := whereClause(req.Predicates, 1)

	clauses := where
	if after != nil {
		bound := fmt.Sprintf("%s > $%d", pk, next)
		if clauses == "" {
			clauses = bound
		} else {
			clauses += " AND " + bound
		}
		args = append(args, after)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), req.Table)
	if clauses != "" {
		sql += " WHERE " + clauses
	}
	sql += fmt.Sprintf(" ORDER BY %s LIMIT %d", pk, limit)
	return statement{SQL: sql, Args: args}
}

// compileRowUpdate produces the single-row UPDATE used by the
// row-by-row strategy: assignments applied to one row addressed by key.
func compileRowUpdate(table, pk string, fields []string, values map[string]interface{}, key interface{}) statement {
	setClauses := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields)+1)
	for i, field := range fields {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, i+1))
		args = append(args, values[field])
	}
	sql := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d",
		table, strings.Join(setClauses, ", "), pk, len(fields)+1,
	)
	args = append(args, key)
	return statement{SQL: sql, Args: args}
}

// compileKeyDelete produces a per-page DELETE by key list.
func compileKeyDelete(table, pk string, keys []interface{}) statement {
	placeholders := make([]string, len(keys))
	for i := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf(
		"DELETE FROM %s WHERE %s IN (%s)",
		table, pk, strings.Join(placeholders, ", "),
	)
	return statement{SQL: sql, Args: keys}
}
