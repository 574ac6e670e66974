package scopekit

import (
	"context"

	"github.com/scopekit/scopekit/pkg/query"
)

// FetchPage runs one page window of base plus the filter. With includeTotal
// the exact total is counted concurrently; base must then start with
// "SELECT *". See pkg/query for the full contract.
func FetchPage[T any](ctx context.Context, db *DB, base string, flt *Filter, req Request, includeTotal bool) (*Page[T], error) {
	return query.FetchPage[T](ctx, db.Executor(), base, flt, req, includeTotal)
}

// All runs base plus the filter's full suffix and decodes every row.
func All[T any](ctx context.Context, db *DB, base string, flt *Filter) ([]T, error) {
	return query.All[T](ctx, db.Executor(), base, flt)
}

// First returns the first matching row, or nil when nothing matched.
func First[T any](ctx context.Context, db *DB, base string, flt *Filter) (*T, error) {
	return query.First[T](ctx, db.Executor(), base, flt)
}

// Count runs the COUNT twin of base with the filter's WHERE clause alone.
func Count(ctx context.Context, db *DB, base string, flt *Filter) (int64, error) {
	return query.Count(ctx, db.Executor(), base, flt)
}

// Execute runs a raw statement with explicit named parameters and decodes
// every row.
func Execute[T any](ctx context.Context, db *DB, statement string, params map[string]any) ([]T, error) {
	return query.Execute[T](ctx, db.Executor(), statement, params)
}
