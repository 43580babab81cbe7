package engine

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// memBackend is an in-memory ExecutionBackend that evaluates the exact
// statement shapes the compiler emits. It exists so strategy tests can
// verify semantics (final row-set state, affected counts) without a
// database.
type memBackend struct {
	tables map[string][]Row

	// failOnExec makes the Nth Execute call fail (1-based, 0 = never).
	failOnExec int
	execCalls  int

	// records of issued statements, for selection/behavior assertions
	executed []string
	queried  []string
}

func newMemBackend() *memBackend {
	return &memBackend{tables: make(map[string][]Row)}
}

func (m *memBackend) seed(table string, rows ...Row) {
	m.tables[table] = append(m.tables[table], rows...)
}

func (m *memBackend) snapshot(table string) []Row {
	rows := append([]Row(nil), m.tables[table]...)
	sort.Slice(rows, func(i, j int) bool {
		return cmpValues(rows[i]["id"], rows[j]["id"]) < 0
	})
	return rows
}

func (m *memBackend) Execute(ctx context.Context, sql string, args []interface{}) (int64, error) {
	m.execCalls++
	m.executed = append(m.executed, sql)
	if m.failOnExec > 0 && m.execCalls == m.failOnExec {
		return 0, fmt.Errorf("injected execute failure")
	}

	switch {
	case strings.HasPrefix(sql, "UPDATE "):
		return m.runUpdate(sql, args)
	case strings.HasPrefix(sql, "DELETE FROM "):
		return m.runDelete(sql, args)
	}
	return 0, fmt.Errorf("memBackend: unsupported statement: %s", sql)
}

func (m *memBackend) Query(ctx context.Context, sql string, args []interface{}) (Rows, error) {
	m.queried = append(m.queried, sql)

	if strings.HasPrefix(sql, "SELECT COUNT(*) AS n FROM ") {
		table, conds, err := parseTableAndWhere(strings.TrimPrefix(sql, "SELECT COUNT(*) AS n FROM "))
		if err != nil {
			return nil, err
		}
		var n int64
		for _, row := range m.tables[table] {
			if matchesAll(row, conds, args) {
				n++
			}
		}
		return &sliceRows{rows: []Row{{"n": n}}}, nil
	}

	if strings.HasPrefix(sql, "SELECT ") {
		return m.runSelect(sql, args)
	}
	return nil, fmt.Errorf("memBackend: unsupported query: %s", sql)
}

// runSelect handles: SELECT <cols> FROM <t> [WHERE ...] ORDER BY <pk> LIMIT <n>
func (m *memBackend) runSelect(sql string, args []interface{}) (Rows, error) {
	rest := strings.TrimPrefix(sql, "SELECT ")

	fromIdx := strings.Index(rest, " FROM ")
	if fromIdx < 0 {
		return nil, fmt.Errorf("memBackend: bad select: %s", sql)
	}
	cols := strings.Split(rest[:fromIdx], ", ")
	rest = rest[fromIdx+len(" FROM "):]

	orderIdx := strings.Index(rest, " ORDER BY ")
	if orderIdx < 0 {
		return nil, fmt.Errorf("memBackend: select without ORDER BY: %s", sql)
	}
	tail := rest[orderIdx+len(" ORDER BY "):]
	table, conds, err := parseTableAndWhere(rest[:orderIdx])
	if err != nil {
		return nil, err
	}

	limitIdx := strings.Index(tail, " LIMIT ")
	if limitIdx < 0 {
		return nil, fmt.Errorf("memBackend: select without LIMIT: %s", sql)
	}
	pk := tail[:limitIdx]
	limit, err := strconv.Atoi(tail[limitIdx+len(" LIMIT "):])
	if err != nil {
		return nil, err
	}

	var matched []Row
	for _, row := range m.tables[table] {
		if matchesAll(row, conds, args) {
			matched = append(matched, row)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return cmpValues(matched[i][pk], matched[j][pk]) < 0
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]Row, 0, len(matched))
	for _, row := range matched {
		if len(cols) == 1 && cols[0] == "*" {
			out = append(out, copyRow(row))
			continue
		}
		projected := make(Row, len(cols))
		for _, col := range cols {
			projected[col] = row[col]
		}
		out = append(out, projected)
	}
	return &sliceRows{rows: out}, nil
}

// runUpdate handles: UPDATE <t> SET f = $i[, ...] [WHERE ...]
func (m *memBackend) runUpdate(sql string, args []interface{}) (int64, error) {
	rest := strings.TrimPrefix(sql, "UPDATE ")
	setIdx := strings.Index(rest, " SET ")
	if setIdx < 0 {
		return 0, fmt.Errorf("memBackend: bad update: %s", sql)
	}
	table := rest[:setIdx]
	rest = rest[setIdx+len(" SET "):]

	wherePart := ""
	if whereIdx := strings.Index(rest, " WHERE "); whereIdx >= 0 {
		wherePart = rest[whereIdx+len(" WHERE "):]
		rest = rest[:whereIdx]
	}

	sets := make(map[string]interface{})
	for _, clause := range strings.Split(rest, ", ") {
		parts := strings.SplitN(clause, " = $", 2)
		if len(parts) != 2 {
			return 0, fmt.Errorf("memBackend: bad set clause: %s", clause)
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, err
		}
		sets[parts[0]] = args[idx-1]
	}

	conds, err := parseWhere(wherePart)
	if err != nil {
		return 0, err
	}

	var affected int64
	for _, row := range m.tables[table] {
		if matchesAll(row, conds, args) {
			for field, value := range sets {
				row[field] = value
			}
			affected++
		}
	}
	return affected, nil
}

// runDelete handles: DELETE FROM <t> [WHERE ...] incl. IN-list deletes.
func (m *memBackend) runDelete(sql string, args []interface{}) (int64, error) {
	table, conds, err := parseTableAndWhere(strings.TrimPrefix(sql, "DELETE FROM "))
	if err != nil {
		return 0, err
	}

	kept := m.tables[table][:0]
	var affected int64
	for _, row := range m.tables[table] {
		if matchesAll(row, conds, args) {
			affected++
		} else {
			kept = append(kept, row)
		}
	}
	m.tables[table] = kept
	return affected, nil
}

// ============================================================
// MINI WHERE EVALUATION
// ============================================================

type memCond struct {
	field  string
	op     string
	argIdx int   // 1-based, for comparison conds
	inIdxs []int // for IN lists
}

func parseTableAndWhere(s string) (string, []memCond, error) {
	if whereIdx := strings.Index(s, " WHERE "); whereIdx >= 0 {
		conds, err := parseWhere(s[whereIdx+len(" WHERE "):])
		return s[:whereIdx], conds, err
	}
	return s, nil, nil
}

func parseWhere(clause string) ([]memCond, error) {
	if clause == "" {
		return nil, nil
	}
	var conds []memCond
	for _, part := range strings.Split(clause, " AND ") {
		if inIdx := strings.Index(part, " IN ("); inIdx >= 0 {
			field := part[:inIdx]
			list := strings.TrimSuffix(part[inIdx+len(" IN ("):], ")")
			cond := memCond{field: field, op: "in"}
			for _, ph := range strings.Split(list, ", ") {
				idx, err := strconv.Atoi(strings.TrimPrefix(ph, "$"))
				if err != nil {
					return nil, fmt.Errorf("memBackend: bad IN placeholder %q", ph)
				}
				cond.inIdxs = append(cond.inIdxs, idx)
			}
			conds = append(conds, cond)
			continue
		}

		fields := strings.SplitN(part, " ", 3)
		if len(fields) != 3 || !strings.HasPrefix(fields[2], "$") {
			return nil, fmt.Errorf("memBackend: bad condition %q", part)
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(fields[2], "$"))
		if err != nil {
			return nil, err
		}
		conds = append(conds, memCond{field: fields[0], op: fields[1], argIdx: idx})
	}
	return conds, nil
}

func matchesAll(row Row, conds []memCond, args []interface{}) bool {
	for _, cond := range conds {
		if cond.op == "in" {
			found := false
			for _, idx := range cond.inIdxs {
				if cmpValues(row[cond.field], args[idx-1]) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}

		c := cmpValues(row[cond.field], args[cond.argIdx-1])
		ok := false
		switch cond.op {
		case "=":
			ok = c == 0
		case "<>":
			ok = c != 0
		case "<":
			ok = c < 0
		case ">":
			ok = c > 0
		case "<=":
			ok = c <= 0
		case ">=":
			ok = c >= 0
		}
		if !ok {
			return false
		}
	}
	return true
}

func cmpValues(a, b interface{}) int {
	if ta, ok := a.(time.Time); ok {
		tb := b.(time.Time)
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		}
		return 0
	}
	if fa, ok := toFloat(a); ok {
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	sa := fmt.Sprintf("%v", a)
	sb := fmt.Sprintf("%v", b)
	return strings.Compare(sa, sb)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// sliceRows adapts a slice to the Rows cursor.
type sliceRows struct {
	rows []Row
	idx  int
}

func (s *sliceRows) Next() bool {
	if s.idx >= len(s.rows) {
		return false
	}
	s.idx++
	return true
}

func (s *sliceRows) Row() (Row, error) { return s.rows[s.idx-1], nil }
func (s *sliceRows) Err() error        { return nil }
func (s *sliceRows) Close()            {}

// memBulk is an in-memory BulkBackend sharing a memBackend's tables.
type memBulk struct {
	store *memBackend

	// failOnBatch makes the Nth SubmitBatch call fail (1-based, 0 = never).
	failOnBatch int
	batchCalls  int
	batchSizes  []int
}

func (b *memBulk) SubmitBatch(ctx context.Context, table string, kind OperationKind, rows []BulkRow) (int64, error) {
	b.batchCalls++
	b.batchSizes = append(b.batchSizes, len(rows))
	if b.failOnBatch > 0 && b.batchCalls == b.failOnBatch {
		return 0, fmt.Errorf("injected batch failure")
	}

	var affected int64
	for _, bulkRow := range rows {
		for _, row := range b.store.tables[table] {
			if !rowHasKey(row, bulkRow.Key) {
				continue
			}
			if kind == OpUpdate {
				for field, value := range bulkRow.Changes {
					row[field] = value
				}
			}
			affected++
		}
	}

	if kind == OpDelete {
		kept := b.store.tables[table][:0]
		for _, row := range b.store.tables[table] {
			deleted := false
			for _, bulkRow := range rows {
				if rowHasKey(row, bulkRow.Key) {
					deleted = true
					break
				}
			}
			if !deleted {
				kept = append(kept, row)
			}
		}
		b.store.tables[table] = kept
	}
	return affected, nil
}

func rowHasKey(row Row, key Row) bool {
	for field, value := range key {
		if cmpValues(row[field], value) != 0 {
			return false
		}
	}
	return true
}
