package engine

import (
	"fmt"
	"time"
)

// ============================================================
// PREDICATE MODEL
// ============================================================

// Operator is a comparison operator usable in a Predicate.
type Operator string

const (
	OpEQ  Operator = "eq"
	OpNEQ Operator = "neq"
	OpLT  Operator = "lt"
	OpGT  Operator = "gt"
	OpLE  Operator = "le"
	OpGE  Operator = "ge"
)

// sql returns the SQL comparison token for the operator.
func (op Operator) sql() string {
	switch op {
	case OpEQ:
		return "="
	case OpNEQ:
		return "<>"
	case OpLT:
		return "<"
	case OpGT:
		return ">"
	case OpLE:
		return "<="
	case OpGE:
		return ">="
	}
	return ""
}

// Predicate is a single row filter: field <op> value.
type Predicate struct {
	Field string
	Op    Operator
	Value interface{}
}

// PredicateSet is an ordered sequence of predicates combined with AND.
// Order is preserved in generated SQL text but never affects which rows match.
type PredicateSet []Predicate

// Assignment sets one field to a new value. A nil Value with Now=true
// resolves to the request's execution timestamp at compile time.
type Assignment struct {
	Field string
	Value interface{}
	Now   bool
}

// OperationKind distinguishes UPDATE from DELETE requests.
type OperationKind int

const (
	OpUpdate OperationKind = iota
	OpDelete
)

func (k OperationKind) String() string {
	switch k {
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	}
	return "UNKNOWN"
}

// ============================================================
// MUTATION REQUEST
// ============================================================

// MutationRequest is a validated, immutable bulk UPDATE or DELETE.
// Build one with NewRequest; a request is consumed once by a strategy.
type MutationRequest struct {
	Table       string
	Kind        OperationKind
	Predicates  PredicateSet
	Assignments []Assignment
}

// RequestBuilder accumulates filters and assignments for a MutationRequest.
type RequestBuilder struct {
	table       string
	kind        OperationKind
	predicates  PredicateSet
	assignments []Assignment
	engine      *Engine
}

// NewRequest starts building a mutation against a table.
func NewRequest(table string, kind OperationKind) *RequestBuilder {
	return &RequestBuilder{
		table: table,
		kind:  kind,
	}
}

// Filter adds a predicate to the WHERE conjunction.
func (b *RequestBuilder) Filter(field string, op Operator, value interface{}) *RequestBuilder {
	b.predicates = append(b.predicates, Predicate{Field: field, Op: op, Value: value})
	return b
}

// Set assigns a new value to a field (UPDATE only).
func (b *RequestBuilder) Set(field string, value interface{}) *RequestBuilder {
	b.assignments = append(b.assignments, Assignment{Field: field, Value: value})
	return b
}

// SetNow assigns the execution timestamp to a field (UPDATE only).
// The timestamp is resolved once per request, so every affected row
// receives the same value regardless of strategy.
func (b *RequestBuilder) SetNow(field string) *RequestBuilder {
	b.assignments = append(b.assignments, Assignment{Field: field, Now: true})
	return b
}

// Build validates the request against the schema and freezes it.
// Returns a ValidationError for unknown tables or fields, duplicate
// assignments, type mismatches, or an UPDATE with no assignments.
func (b *RequestBuilder) Build(schema *Schema) (*MutationRequest, error) {
	table := schema.GetTable(b.table)
	if table == nil {
		return nil, &ValidationError{
			Field:    b.table,
			Type:     "unknown_table",
			Value:    b.table,
			Expected: "a table declared in the schema",
			Message:  fmt.Sprintf("table '%s' is not part of the target schema", b.table),
		}
	}

	if b.kind == OpUpdate && len(b.assignments) == 0 {
		return nil, &ValidationError{
			Field:    b.table,
			Type:     "empty_assignments",
			Expected: "at least one Set() or SetNow()",
			Message:  "UPDATE request has no assignments",
		}
	}
	if b.kind == OpDelete && len(b.assignments) > 0 {
		return nil, &ValidationError{
			Field:    b.table,
			Type:     "assignments_on_delete",
			Expected: "no assignments",
			Message:  "DELETE request must not carry assignments",
		}
	}

	for _, p := range b.predicates {
		field, ok := table.Fields[p.Field]
		if !ok {
			return nil, unknownFieldError(b.table, p.Field, table)
		}
		if p.Op.sql() == "" {
			return nil, &ValidationError{
				Field:    p.Field,
				Type:     "unknown_operator",
				Value:    string(p.Op),
				Expected: "one of eq, neq, lt, gt, le, ge",
				Message:  fmt.Sprintf("operator '%s' is not supported", p.Op),
			}
		}
		if err := checkValueType(p.Field, field.Type, p.Value); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(b.assignments))
	for _, a := range b.assignments {
		field, ok := table.Fields[a.Field]
		if !ok {
			return nil, unknownFieldError(b.table, a.Field, table)
		}
		if seen[a.Field] {
			return nil, &ValidationError{
				Field:    a.Field,
				Type:     "duplicate_assignment",
				Expected: "each field assigned at most once",
				Message:  fmt.Sprintf("field '%s' is assigned more than once", a.Field),
			}
		}
		seen[a.Field] = true

		if a.Now {
			if field.Type != FieldTypeTimestamp {
				return nil, &ValidationError{
					Field:    a.Field,
					Type:     "type_mismatch",
					Expected: string(FieldTypeTimestamp),
					Message:  fmt.Sprintf("SetNow requires a Timestamp field, '%s' is %s", a.Field, field.Type),
				}
			}
			continue
		}
		if err := checkValueType(a.Field, field.Type, a.Value); err != nil {
			return nil, err
		}
	}

	req := &MutationRequest{
		Table:       b.table,
		Kind:        b.kind,
		Predicates:  append(PredicateSet(nil), b.predicates...),
		Assignments: append([]Assignment(nil), b.assignments...),
	}
	return req, nil
}

func unknownFieldError(table, field string, t *Table) error {
	available := make([]string, 0, len(t.Fields))
	for name := range t.Fields {
		available = append(available, name)
	}
	return &ValidationError{
		Field:    field,
		Type:     "unknown_field",
		Value:    field,
		Expected: fmt.Sprintf("a field of table '%s'", table),
		Message:  fmt.Sprintf("field '%s' does not exist on table '%s' (available: %v)", field, table, available),
	}
}

// checkValueType verifies a scalar value is compatible with a field type.
// nil is accepted for every type; nullability is enforced by the store.
func checkValueType(field string, ft FieldType, value interface{}) error {
	if value == nil {
		return nil
	}

	ok := true
	switch ft {
	case FieldTypeString, FieldTypeUUID:
		_, ok = value.(string)
	case FieldTypeInt:
		switch value.(type) {
		case int, int32, int64:
		default:
			ok = false
		}
	case FieldTypeFloat:
		switch value.(type) {
		case float32, float64, int, int64:
		default:
			ok = false
		}
	case FieldTypeBool:
		_, ok = value.(bool)
	case FieldTypeTimestamp:
		_, ok = value.(time.Time)
	}

	if !ok {
		return &ValidationError{
			Field:    field,
			Type:     "type_mismatch",
			Value:    value,
			Expected: string(ft),
			Message:  fmt.Sprintf("value %v (%T) is not valid for %s field '%s'", value, value, ft, field),
		}
	}
	return nil
}
