package engine

import "fmt"

// Row represents a single result row as a map of field name → value.
// Values are typed: string, int64, float64, bool, nil, time.Time.
type Row map[string]interface{}

// Get returns the value of a field.
func (r Row) Get(field string) interface{} {
	return r[field]
}

// String returns the string value of a field, or empty string if not found.
func (r Row) String(field string) string {
	v, ok := r[field]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return s
}

// Int returns the int64 value of a field, or 0 if not found/not numeric.
func (r Row) Int(field string) int64 {
	v, ok := r[field]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// keyString converts a key value to a stable string form, used when
// rows must be addressed individually (paging cursors, bulk batches).
func keyString(v interface{}) string {
	switch k := v.(type) {
	case string:
		return k
	case []byte:
		return string(k)
	case int, int32, int64:
		return fmt.Sprintf("%d", k)
	default:
		return fmt.Sprintf("%v", k)
	}
}
