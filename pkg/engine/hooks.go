package engine

import "context"

// RowHook is a per-row business-rule callback. Hooks run only under the
// row-by-row strategy, on each matching row before it is persisted or
// deleted; set-based and bulk strategies bypass them entirely, which is
// one of the inputs to strategy selection.
//
// A hook error aborts the run: rows already persisted stay persisted and
// the failure is reported as a PartialFailure.
type RowHook interface {
	OnRow(ctx context.Context, table string, row Row) error
}

// RowHookFunc adapts a plain function to the RowHook interface.
type RowHookFunc func(ctx context.Context, table string, row Row) error

func (f RowHookFunc) OnRow(ctx context.Context, table string, row Row) error {
	return f(ctx, table, row)
}

func runHooks(ctx context.Context, hooks []RowHook, table string, row Row) error {
	for _, h := range hooks {
		if err := h.OnRow(ctx, table, row); err != nil {
			return err
		}
	}
	return nil
}
