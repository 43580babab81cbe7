package engine

import (
	"fmt"
	"io"
	"os"
)

// DebugLevel controls how chatty the engine is about what it executes.
type DebugLevel int

const (
	DebugOff DebugLevel = iota
	// DebugSQL prints every generated statement and its bound values.
	DebugSQL
	// DebugTrace additionally prints per-operation timing and row counts.
	DebugTrace
)

// DebugContext holds the debug output settings for an engine.
type DebugContext struct {
	Level  DebugLevel
	Writer io.Writer
}

// DefaultDebugContext returns debug output disabled, writing to stdout.
func DefaultDebugContext() *DebugContext {
	return &DebugContext{
		Level:  DebugOff,
		Writer: os.Stdout,
	}
}

func (d *DebugContext) sqlf(format string, args ...interface{}) {
	if d != nil && d.Level >= DebugSQL {
		fmt.Fprintf(d.Writer, format, args...)
	}
}

func (d *DebugContext) tracef(format string, args ...interface{}) {
	if d != nil && d.Level >= DebugTrace {
		fmt.Fprintf(d.Writer, format, args...)
	}
}
