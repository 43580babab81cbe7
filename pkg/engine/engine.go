package engine

import (
	"context"
	"fmt"
)

// Engine is the main entry point: it owns the target schema, the
// execution backend, an optional bulk backend, and the selection policy.
// Every MutationRequest flows through Execute exactly once and yields
// exactly one MutationReport.
type Engine struct {
	schema    *Schema
	connector *Connector
	backend   ExecutionBackend
	bulk      BulkBackend
	opts      Options
	hooks     []RowHook

	// Debug context
	Debug *DebugContext
}

// NewEngine creates an engine with the given options. Connect a store
// with Connect (PostgreSQL) or WithBackend (any ExecutionBackend).
func NewEngine(opts Options) *Engine {
	return &Engine{
		opts:  opts.withDefaults(),
		Debug: DefaultDebugContext(),
	}
}

// WithBackend wires an arbitrary ExecutionBackend. Useful for stores
// other than PostgreSQL and for tests.
func (e *Engine) WithBackend(backend ExecutionBackend) *Engine {
	e.backend = backend
	return e
}

// WithDebug switches on debug output at the given level.
func (e *Engine) WithDebug(level DebugLevel) *Engine {
	e.Debug = DefaultDebugContext()
	e.Debug.Level = level
	return e
}

// Connect establishes a PostgreSQL connection pool and wires the
// postgres execution backend.
func (e *Engine) Connect(ctx context.Context, config ConnectorConfig) error {
	e.connector = NewConnector(config)
	if err := e.connector.Connect(ctx); err != nil {
		return err
	}
	e.backend = NewPostgresBackend(e.connector)
	return nil
}

// Close closes the database connection, if one was opened via Connect.
func (e *Engine) Close() {
	if e.connector != nil {
		e.connector.Close()
	}
}

// IsConnected reports whether an execution backend is wired.
func (e *Engine) IsConnected() bool {
	return e.backend != nil
}

// Connector returns the underlying connector for raw pool access,
// nil when the engine was wired via WithBackend.
func (e *Engine) Connector() *Connector {
	return e.connector
}

// ============================================================
// SCHEMA HANDLING
// ============================================================

// UseSchema sets the validation schema directly.
func (e *Engine) UseSchema(schema *Schema) {
	e.schema = schema
}

// LoadSchema loads the validation schema from a JSON file.
func (e *Engine) LoadSchema(path string) (*Schema, error) {
	schema, err := LoadSchemaFromFile(path)
	if err != nil {
		return nil, err
	}
	e.schema = schema
	return schema, nil
}

// Introspect builds the validation schema from the live database.
func (e *Engine) Introspect(ctx context.Context, tables ...string) (*Schema, error) {
	if e.backend == nil {
		return nil, &BackendUnavailableError{Backend: "postgres", Reason: "not connected"}
	}
	schema, err := IntrospectSchema(ctx, e.backend, tables...)
	if err != nil {
		return nil, err
	}
	e.schema = schema
	return schema, nil
}

// Schema returns the currently loaded schema.
func (e *Engine) Schema() *Schema {
	return e.schema
}

// ============================================================
// BULK BACKEND AND HOOKS
// ============================================================

// UseBulkBackend wires a bulk backend registered under name.
// Failing here is a configuration error, checked eagerly.
func (e *Engine) UseBulkBackend(name string) error {
	if e.backend == nil {
		return &BackendUnavailableError{Backend: name, Reason: "connect an execution backend first"}
	}
	bulk, err := NewBulkBackend(name, e.backend)
	if err != nil {
		return err
	}
	e.bulk = bulk
	return nil
}

// AddHook attaches a per-row hook. Hooks run only under the row-by-row
// strategy.
func (e *Engine) AddHook(hook RowHook) {
	if hook != nil {
		e.hooks = append(e.hooks, hook)
	}
}

// ============================================================
// EXECUTION
// ============================================================

// ExecOptions adjusts a single execution.
type ExecOptions struct {
	// ForceStrategy bypasses tiered selection. The forced choice is
	// still recorded truthfully in the report.
	ForceStrategy *StrategyKind
}

// Execute runs a request through the tiered selection policy.
func (e *Engine) Execute(ctx context.Context, req *MutationRequest) (*MutationReport, error) {
	return e.ExecuteWith(ctx, req, ExecOptions{})
}

// ExecuteWith runs a request with per-call options.
func (e *Engine) ExecuteWith(ctx context.Context, req *MutationRequest, exec ExecOptions) (*MutationReport, error) {
	if e.backend == nil {
		return nil, &BackendUnavailableError{Backend: "execution", Reason: "no execution backend wired"}
	}
	if req == nil {
		return nil, &ValidationError{Type: "nil_request", Message: "request is nil"}
	}
	if e.schema == nil {
		return nil, &ValidationError{Type: "no_schema", Message: "engine has no schema loaded; call LoadSchema, UseSchema, or Introspect first"}
	}

	var kind StrategyKind
	if exec.ForceStrategy != nil {
		kind = *exec.ForceStrategy
	} else {
		selector := NewStrategySelector(e.backend, e.bulk, e.opts)
		estimated, err := selector.EstimateAffected(ctx, req)
		if err != nil {
			return nil, err
		}
		kind = selector.Select(estimated)
		e.Debug.tracef("[TRACE] %s on %s: estimated %d rows, selected %s\n",
			req.Kind, req.Table, estimated, kind)
	}

	strategy, err := e.strategyFor(kind)
	if err != nil {
		return nil, err
	}
	return strategy.Execute(ctx, req)
}

func (e *Engine) strategyFor(kind StrategyKind) (Strategy, error) {
	switch kind {
	case StrategyRowByRow:
		s := NewRowByRowStrategy(e.backend, e.schema, e.opts, e.hooks)
		s.debug = e.Debug
		return s, nil
	case StrategySetBased:
		s := NewSetBasedStrategy(e.backend)
		s.debug = e.Debug
		return s, nil
	case StrategyBulkAPI:
		s, err := NewBulkAPIStrategy(e.backend, e.bulk, e.schema, e.opts)
		if err != nil {
			return nil, err
		}
		s.debug = e.Debug
		return s, nil
	}
	return nil, fmt.Errorf("unknown strategy %d", kind)
}

// ============================================================
// FLUENT REQUEST API
// ============================================================

// Update starts a fluent UPDATE request against this engine.
func (e *Engine) Update(table string) *RequestBuilder {
	b := NewRequest(table, OpUpdate)
	b.engine = e
	return b
}

// Delete starts a fluent DELETE request against this engine.
func (e *Engine) Delete(table string) *RequestBuilder {
	b := NewRequest(table, OpDelete)
	b.engine = e
	return b
}

// Execute validates the built request against the engine's schema and
// runs it. Only available on builders created via Engine.Update/Delete.
func (b *RequestBuilder) Execute(ctx context.Context) (*MutationReport, error) {
	if b.engine == nil {
		return nil, &ValidationError{Type: "detached_builder", Message: "builder was not created from an engine"}
	}
	if b.engine.schema == nil {
		return nil, &ValidationError{Type: "no_schema", Message: "engine has no schema loaded; call LoadSchema or Introspect first"}
	}

	req, err := b.Build(b.engine.schema)
	if err != nil {
		return nil, err
	}
	return b.engine.Execute(ctx, req)
}
