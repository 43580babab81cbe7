package main

import (
	"testing"
	"time"

	"github.com/stampede-db/stampede/pkg/engine"
)

func TestParseScalar(t *testing.T) {
	cases := []struct {
		raw  string
		want interface{}
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"4.5", 4.5},
		{"true", true},
		{"false", false},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:30:00Z", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"Archived", "Archived"},
	}

	for _, tc := range cases {
		got := parseScalar(tc.raw)
		if tv, ok := tc.want.(time.Time); ok {
			if !tv.Equal(got.(time.Time)) {
				t.Errorf("parseScalar(%q) = %v, want %v", tc.raw, got, tc.want)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("parseScalar(%q) = %v (%T), want %v (%T)", tc.raw, got, got, tc.want, tc.want)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	cases := map[string]engine.StrategyKind{
		"row-by-row": engine.StrategyRowByRow,
		"set-based":  engine.StrategySetBased,
		"bulk-api":   engine.StrategyBulkAPI,
	}
	for name, want := range cases {
		got, err := parseStrategy(name)
		if err != nil {
			t.Fatalf("parseStrategy(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("parseStrategy(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := parseStrategy("clever"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
