// Package query executes filtered, paginated N1QL statements through a
// core.QueryRunner.
//
// The entry points are free generic functions rather than methods because
// the row type parameter has to live on the call, not on the Executor.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scopekit/scopekit/pkg/core"
	scopekitErrors "github.com/scopekit/scopekit/pkg/errors"
	"github.com/scopekit/scopekit/pkg/filter"
	"github.com/scopekit/scopekit/pkg/mapping"
	"github.com/scopekit/scopekit/pkg/page"
)

// countProjection replaces the SELECT * prefix of a countable statement.
const countProjection = "SELECT COUNT(*) AS count"

// Executor runs compiled filters against a query runner. It is stateless
// apart from its collaborators and safe for concurrent use.
type Executor struct {
	runner core.QueryRunner
	logger zerolog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an Executor on top of a query runner.
func NewExecutor(runner core.QueryRunner, opts ...Option) *Executor {
	e := &Executor{
		runner: runner,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FetchPage runs base plus the filter's rendered suffix as one page window.
//
// With includeTotal the matching COUNT query runs concurrently with the data
// query and the page carries an exact total; base must then start with
// "SELECT *" (case-insensitive) so the COUNT projection can replace it.
// Without a total, one row beyond the window is fetched and trimmed to
// derive the has-more hint.
//
// The page request always wins over any Skip/Take set on the filter; the
// filter itself is never modified.
func FetchPage[T any](ctx context.Context, e *Executor, base string, flt *filter.Filter, req page.Request, includeTotal bool) (*page.Page[T], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stmt, compiled, err := e.prepare(base, flt)
	if err != nil {
		return nil, err
	}

	if !includeTotal {
		window := compiled.WithPagination(req.Size+1, req.Offset())
		items, err := runRows[T](ctx, e, joinSuffix(stmt, window.Suffix()), compiled.Params)
		if err != nil {
			return nil, err
		}

		hasMore := len(items) > req.Size
		if hasMore {
			items = items[:req.Size]
		}
		return page.New(items, req, hasMore), nil
	}

	countStmt, err := countStatement(stmt)
	if err != nil {
		return nil, err
	}
	countStmt = joinSuffix(countStmt, compiled.WhereClause())

	window := compiled.WithPagination(req.Size, req.Offset())
	dataStmt := joinSuffix(stmt, window.Suffix())

	// Both statements run concurrently; the first failure cancels the
	// sibling and both goroutines always deliver exactly one result.
	qctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type dataResult struct {
		err   error
		items []T
	}
	type countResult struct {
		err   error
		total int64
	}

	dataCh := make(chan dataResult, 1)
	countCh := make(chan countResult, 1)

	go func() {
		items, err := runRows[T](qctx, e, dataStmt, compiled.Params)
		if err != nil {
			cancel()
		}
		dataCh <- dataResult{err: err, items: items}
	}()

	go func() {
		total, err := runCount(qctx, e, countStmt, compiled.Params)
		if err != nil {
			cancel()
		}
		countCh <- countResult{err: err, total: total}
	}()

	data := <-dataCh
	count := <-countCh

	// Prefer the root cause over the sibling's cancellation fallout.
	if data.err != nil && !errors.Is(data.err, context.Canceled) {
		return nil, data.err
	}
	if count.err != nil && !errors.Is(count.err, context.Canceled) {
		return nil, count.err
	}
	if data.err != nil {
		return nil, data.err
	}
	if count.err != nil {
		return nil, count.err
	}

	return page.NewWithTotal(data.items, req, count.total), nil
}

// All runs base plus the filter's full suffix and decodes every row.
func All[T any](ctx context.Context, e *Executor, base string, flt *filter.Filter) ([]T, error) {
	stmt, compiled, err := e.prepare(base, flt)
	if err != nil {
		return nil, err
	}
	return runRows[T](ctx, e, joinSuffix(stmt, compiled.Suffix()), compiled.Params)
}

// First returns the first matching row, or nil when nothing matched. The
// filter's LIMIT is overridden to 1; its OFFSET still applies.
func First[T any](ctx context.Context, e *Executor, base string, flt *filter.Filter) (*T, error) {
	stmt, compiled, err := e.prepare(base, flt)
	if err != nil {
		return nil, err
	}

	limited := compiled.WithLimit(1)
	items, err := runRows[T](ctx, e, joinSuffix(stmt, limited.Suffix()), compiled.Params)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// Count rewrites base into a COUNT projection and runs it with the filter's
// WHERE clause alone; ordering and paging hints are dropped.
func Count(ctx context.Context, e *Executor, base string, flt *filter.Filter) (int64, error) {
	stmt, compiled, err := e.prepare(base, flt)
	if err != nil {
		return 0, err
	}

	countStmt, err := countStatement(stmt)
	if err != nil {
		return 0, err
	}
	return runCount(ctx, e, joinSuffix(countStmt, compiled.WhereClause()), compiled.Params)
}

// Execute runs a raw statement with explicit named parameters and decodes
// every row. It is the escape hatch for statements the filter can not
// express.
func Execute[T any](ctx context.Context, e *Executor, statement string, params map[string]any) ([]T, error) {
	stmt := strings.TrimSpace(statement)
	if stmt == "" {
		return nil, scopekitErrors.ErrEmptyStatement
	}
	return runRows[T](ctx, e, stmt, params)
}

// prepare trims and validates the base statement and compiles the filter.
// A nil filter compiles to an empty suffix.
func (e *Executor) prepare(base string, flt *filter.Filter) (string, core.CompiledQuery, error) {
	stmt := strings.TrimSpace(base)
	if stmt == "" {
		return "", core.CompiledQuery{}, scopekitErrors.ErrEmptyStatement
	}

	if flt == nil {
		return stmt, core.CompiledQuery{}, nil
	}

	compiled, err := flt.Compile()
	if err != nil {
		return "", core.CompiledQuery{}, err
	}
	return stmt, compiled, nil
}

// countStatement rewrites a "SELECT * ..." statement into its COUNT twin.
// The prefix check is structural, not a parse; anything else is rejected
// before reaching the database.
func countStatement(stmt string) (string, error) {
	const prefix = "SELECT *"
	if len(stmt) < len(prefix) || !strings.EqualFold(stmt[:len(prefix)], prefix) {
		// No query ran, so the sentinel is not wrapped in a QueryError.
		return "", fmt.Errorf("%w: %q", scopekitErrors.ErrNotCountable, stmt)
	}
	return countProjection + stmt[len(prefix):], nil
}

func joinSuffix(stmt, suffix string) string {
	if suffix == "" {
		return stmt
	}
	return stmt + " " + suffix
}

// runRows executes one statement and decodes every row through the document
// mapping conventions. Rows that decode to JSON null are dropped.
func runRows[T any](ctx context.Context, e *Executor, stmt string, params map[string]any) ([]T, error) {
	start := time.Now()

	reader, err := e.runner.RunQuery(ctx, stmt, params)
	if err != nil {
		e.logger.Error().Err(err).Str("statement", stmt).Msg("query failed")
		return nil, scopekitErrors.NewQueryError("query", stmt, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	var items []T
	for reader.Next() {
		var row any
		if err := reader.Row(&row); err != nil {
			return nil, scopekitErrors.NewQueryError("decode", stmt, err)
		}

		item, err := mapping.MapValue[T](row)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		items = append(items, *item)
	}
	if err := reader.Err(); err != nil {
		e.logger.Error().Err(err).Str("statement", stmt).Msg("query stream failed")
		return nil, scopekitErrors.NewQueryError("stream", stmt, err)
	}

	e.logger.Debug().
		Str("statement", stmt).
		Int("rows", len(items)).
		Dur("took", time.Since(start)).
		Msg("query completed")
	return items, nil
}

// countRow is the shape of a COUNT projection result.
type countRow struct {
	Count int64 `json:"count"`
}

// runCount executes a COUNT projection and reads the single result row. A
// result with no rows counts as zero.
func runCount(ctx context.Context, e *Executor, stmt string, params map[string]any) (int64, error) {
	start := time.Now()

	reader, err := e.runner.RunQuery(ctx, stmt, params)
	if err != nil {
		e.logger.Error().Err(err).Str("statement", stmt).Msg("count query failed")
		return 0, scopekitErrors.NewQueryError("count", stmt, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	var total int64
	if reader.Next() {
		var row countRow
		if err := reader.Row(&row); err != nil {
			return 0, scopekitErrors.NewQueryError("count", stmt, err)
		}
		total = row.Count
	}
	if err := reader.Err(); err != nil {
		return 0, scopekitErrors.NewQueryError("count", stmt, err)
	}

	e.logger.Debug().
		Str("statement", stmt).
		Int64("total", total).
		Dur("took", time.Since(start)).
		Msg("count completed")
	return total, nil
}
