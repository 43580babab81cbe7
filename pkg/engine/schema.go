package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Schema describes the row-sets mutations may target.
// It exists only so requests can be validated before any SQL is issued;
// the engine never creates or alters tables.
type Schema struct {
	Tables []*Table `json:"tables"`
}

// Table represents a single mutable row-set.
type Table struct {
	Name   string            `json:"name"`
	Fields map[string]*Field `json:"fields"`
}

// Field represents a table column.
type Field struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"field_type"`
	Nullable   bool      `json:"nullable"`
	PrimaryKey bool      `json:"primary_key"`
}

// FieldType identifies the scalar type of a field.
type FieldType string

const (
	FieldTypeUUID      FieldType = "UUID"
	FieldTypeString    FieldType = "String"
	FieldTypeInt       FieldType = "Int"
	FieldTypeFloat     FieldType = "Float"
	FieldTypeBool      FieldType = "Bool"
	FieldTypeTimestamp FieldType = "Timestamp"
)

// GetTable returns a table by name, or nil if not found.
func (s *Schema) GetTable(name string) *Table {
	for _, table := range s.Tables {
		if table.Name == name {
			return table
		}
	}
	return nil
}

// PrimaryKeys returns the table's primary key field names in sorted order.
func (t *Table) PrimaryKeys() []string {
	var keys []string
	for _, field := range t.Fields {
		if field.PrimaryKey {
			keys = append(keys, field.Name)
		}
	}
	sort.Strings(keys)
	return keys
}

// PrimaryKey returns the name of the table's primary key field.
// Returns "" if the table has no primary key or a composite one;
// callers that address rows individually must use PrimaryKeys and
// reject composite keys explicitly.
func (t *Table) PrimaryKey() string {
	keys := t.PrimaryKeys()
	if len(keys) != 1 {
		return ""
	}
	return keys[0]
}

// ParseSchemaJSON parses a JSON string into a Schema.
func ParseSchemaJSON(jsonStr string) (*Schema, error) {
	var schema Schema
	if err := json.Unmarshal([]byte(jsonStr), &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return &schema, nil
}

// LoadSchemaFromFile loads a Schema from a JSON file.
func LoadSchemaFromFile(path string) (*Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return ParseSchemaJSON(string(content))
}

// ToJSON converts a Schema to a JSON string.
func (s *Schema) ToJSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
