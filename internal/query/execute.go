package query

import "context"

// RowLoader executes finished query text against the backend of dialect D and
// decodes the result into rows of type R.
type RowLoader[D Dialect, R any] interface {
	// Dialect returns the dialect the loader's backend speaks.
	Dialect() D
	LoadRows(ctx context.Context, query string) ([]R, error)
}

// Execute builds b and hands the text to loader. Build failures are returned
// unchanged; loader failures are wrapped in *ExecutionError.
func Execute[D Dialect, R any](ctx context.Context, b *Builder[D], loader RowLoader[D, R]) ([]R, error) {
	q, err := b.Build()
	if err != nil {
		return nil, err
	}
	rows, err := loader.LoadRows(ctx, q)
	if err != nil {
		return nil, &ExecutionError{Query: q, Err: err}
	}
	return rows, nil
}
