package engine

import (
	"os"
	"path/filepath"
	"testing"
)

const ordersSchemaJSON = `{
  "tables": [
    {
      "name": "orders",
      "fields": {
        "id": {"name": "id", "field_type": "Int", "primary_key": true},
        "status": {"name": "status", "field_type": "String"},
        "amount": {"name": "amount", "field_type": "Float", "nullable": true}
      }
    }
  ]
}`

func TestParseSchemaJSON(t *testing.T) {
	schema, err := ParseSchemaJSON(ordersSchemaJSON)
	if err != nil {
		t.Fatalf("ParseSchemaJSON: %v", err)
	}

	table := schema.GetTable("orders")
	if table == nil {
		t.Fatal("orders table not found")
	}
	if len(table.Fields) != 3 {
		t.Errorf("fields = %d, want 3", len(table.Fields))
	}
	if table.Fields["id"].Type != FieldTypeInt {
		t.Errorf("id type = %q", table.Fields["id"].Type)
	}
	if !table.Fields["amount"].Nullable {
		t.Error("amount should be nullable")
	}
	if schema.GetTable("missing") != nil {
		t.Error("GetTable on unknown name should return nil")
	}
}

func TestParseSchemaJSON_Invalid(t *testing.T) {
	if _, err := ParseSchemaJSON("{not json"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTablePrimaryKey(t *testing.T) {
	schema, err := ParseSchemaJSON(ordersSchemaJSON)
	if err != nil {
		t.Fatal(err)
	}
	if pk := schema.GetTable("orders").PrimaryKey(); pk != "id" {
		t.Errorf("PrimaryKey() = %q, want id", pk)
	}

	noKey := &Table{Name: "loose", Fields: map[string]*Field{
		"v": {Name: "v", Type: FieldTypeString},
	}}
	if pk := noKey.PrimaryKey(); pk != "" {
		t.Errorf("PrimaryKey() = %q, want empty", pk)
	}
}

func TestTablePrimaryKeys_Composite(t *testing.T) {
	table := &Table{Name: "assignments", Fields: map[string]*Field{
		"tenant": {Name: "tenant", Type: FieldTypeString, PrimaryKey: true},
		"id":     {Name: "id", Type: FieldTypeInt, PrimaryKey: true},
		"status": {Name: "status", Type: FieldTypeString},
	}}

	// PrimaryKey refuses to pick one column of a composite key, and
	// PrimaryKeys is sorted so the answer never depends on map order.
	for i := 0; i < 20; i++ {
		if pk := table.PrimaryKey(); pk != "" {
			t.Fatalf("PrimaryKey() = %q, want empty for composite key", pk)
		}
		keys := table.PrimaryKeys()
		if len(keys) != 2 || keys[0] != "id" || keys[1] != "tenant" {
			t.Fatalf("PrimaryKeys() = %v, want [id tenant]", keys)
		}
	}
}

func TestSchemaFileRoundTrip(t *testing.T) {
	schema, err := ParseSchemaJSON(ordersSchemaJSON)
	if err != nil {
		t.Fatal(err)
	}

	out, err := schema.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	path := filepath.Join(t.TempDir(), "schema.json")
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadSchemaFromFile(path)
	if err != nil {
		t.Fatalf("LoadSchemaFromFile: %v", err)
	}
	if loaded.GetTable("orders") == nil {
		t.Fatal("orders table lost in round trip")
	}
	if loaded.GetTable("orders").PrimaryKey() != "id" {
		t.Error("primary key lost in round trip")
	}
}

func TestLoadSchemaFromFile_Missing(t *testing.T) {
	if _, err := LoadSchemaFromFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
