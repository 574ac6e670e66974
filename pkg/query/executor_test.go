package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	scopekitErrors "github.com/scopekit/scopekit/pkg/errors"
	"github.com/scopekit/scopekit/pkg/filter"
	"github.com/scopekit/scopekit/pkg/mocks"
	"github.com/scopekit/scopekit/pkg/page"
)

type user struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

const baseQuery = "SELECT * FROM users"

var activeParams = map[string]any{"p0": "active"}

func activeFilter() *filter.Filter {
	return filter.New().Eq("status", "active")
}

func userRow(id, name string) string {
	return `{"id":"` + id + `","name":"` + name + `","status":"active"}`
}

func TestFetchPage_ValidatesRequestBeforeIO(t *testing.T) {
	tests := []struct {
		name    string
		number  int
		size    int
		wantErr error
	}{
		{name: "zero_page_number", number: 0, size: 25, wantErr: scopekitErrors.ErrInvalidPageNumber},
		{name: "negative_page_number", number: -1, size: 25, wantErr: scopekitErrors.ErrInvalidPageNumber},
		{name: "zero_page_size", number: 1, size: 0, wantErr: scopekitErrors.ErrInvalidPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mocks.MockQueryRunner)
			e := NewExecutor(runner)

			pg, err := FetchPage[user](context.Background(), e, baseQuery, nil, page.Request{Number: tt.number, Size: tt.size}, false)

			require.Error(t, err)
			assert.Nil(t, pg)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, scopekitErrors.ErrInvalidPageRequest)
			assert.True(t, scopekitErrors.IsPrecondition(err))
			runner.AssertNotCalled(t, "RunQuery", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestFetchPage_RejectsEmptyStatement(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	for _, base := range []string{"", "   \t"} {
		pg, err := FetchPage[user](context.Background(), e, base, nil, page.Request{Number: 1, Size: 10}, false)

		require.ErrorIs(t, err, scopekitErrors.ErrEmptyStatement)
		assert.Nil(t, pg)
	}
	runner.AssertNotCalled(t, "RunQuery", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchPage_WithoutTotal(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	// One row beyond the window is requested to derive the has-more hint.
	result := mocks.NewResult(userRow("u1", "Alice"), userRow("u2", "Bob"), userRow("u3", "Carol"))
	runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0 LIMIT 3 OFFSET 0", activeParams).
		Return(result, nil)

	pg, err := FetchPage[user](context.Background(), e, baseQuery, activeFilter(), page.Request{Number: 1, Size: 2}, false)

	require.NoError(t, err)
	require.Len(t, pg.Items, 2)
	assert.Equal(t, "Alice", pg.Items[0].Name)
	assert.Equal(t, "Bob", pg.Items[1].Name)
	assert.Nil(t, pg.TotalCount)
	assert.False(t, pg.HasPreviousPage())
	assert.True(t, pg.HasNextPage())
	assert.True(t, result.Closed())
	runner.AssertExpectations(t)
}

func TestFetchPage_WithoutTotal_LastPage(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0 LIMIT 3 OFFSET 2", activeParams).
		Return(mocks.NewResult(userRow("u3", "Carol")), nil)

	pg, err := FetchPage[user](context.Background(), e, baseQuery, activeFilter(), page.Request{Number: 2, Size: 2}, false)

	require.NoError(t, err)
	require.Len(t, pg.Items, 1)
	assert.True(t, pg.HasPreviousPage())
	assert.False(t, pg.HasNextPage())
	runner.AssertExpectations(t)
}

func TestFetchPage_WithTotal(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	dataResult := mocks.NewResult(userRow("u3", "Carol"), userRow("u4", "Dave"))
	countResult := mocks.NewResult(`{"count":5}`)
	runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0 LIMIT 2 OFFSET 2", activeParams).
		Return(dataResult, nil)
	runner.On("RunQuery", mock.Anything, "SELECT COUNT(*) AS count FROM users WHERE status = $p0", activeParams).
		Return(countResult, nil)

	pg, err := FetchPage[user](context.Background(), e, baseQuery, activeFilter(), page.Request{Number: 2, Size: 2}, true)

	require.NoError(t, err)
	require.Len(t, pg.Items, 2)
	require.NotNil(t, pg.TotalCount)
	assert.Equal(t, int64(5), *pg.TotalCount)
	assert.Equal(t, 3, pg.TotalPages())
	assert.True(t, pg.HasPreviousPage())
	assert.True(t, pg.HasNextPage())
	assert.True(t, dataResult.Closed())
	assert.True(t, countResult.Closed())
	runner.AssertExpectations(t)
}

func TestFetchPage_WithTotal_AcceptsLowercasePrefix(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	runner.On("RunQuery", mock.Anything, "select * from users LIMIT 10 OFFSET 0", map[string]any(nil)).
		Return(mocks.NewResult(userRow("u1", "Alice")), nil)
	runner.On("RunQuery", mock.Anything, "SELECT COUNT(*) AS count from users", map[string]any(nil)).
		Return(mocks.NewResult(`{"count":1}`), nil)

	pg, err := FetchPage[user](context.Background(), e, "select * from users", nil, page.Request{Number: 1, Size: 10}, true)

	require.NoError(t, err)
	require.NotNil(t, pg.TotalCount)
	assert.Equal(t, int64(1), *pg.TotalCount)
	runner.AssertExpectations(t)
}

func TestFetchPage_WithTotal_RequiresSelectStarPrefix(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	pg, err := FetchPage[user](context.Background(), e, "SELECT name FROM users", nil, page.Request{Number: 1, Size: 10}, true)

	require.Error(t, err)
	assert.Nil(t, pg)
	assert.ErrorIs(t, err, scopekitErrors.ErrNotCountable)
	assert.True(t, scopekitErrors.IsPrecondition(err))
	assert.False(t, scopekitErrors.IsQueryFailure(err))
	runner.AssertNotCalled(t, "RunQuery", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchPage_WithTotal_CountsEmptyResultAsZero(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0 LIMIT 2 OFFSET 0", activeParams).
		Return(mocks.NewResult(), nil)
	runner.On("RunQuery", mock.Anything, "SELECT COUNT(*) AS count FROM users WHERE status = $p0", activeParams).
		Return(mocks.NewResult(), nil)

	pg, err := FetchPage[user](context.Background(), e, baseQuery, activeFilter(), page.Request{Number: 1, Size: 2}, true)

	require.NoError(t, err)
	assert.Empty(t, pg.Items)
	require.NotNil(t, pg.TotalCount)
	assert.Equal(t, int64(0), *pg.TotalCount)
	assert.Equal(t, 0, pg.TotalPages())
	assert.False(t, pg.HasNextPage())
	runner.AssertExpectations(t)
}

func TestFetchPage_WithTotal_CountFailureAborts(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0 LIMIT 2 OFFSET 0", activeParams).
		Return(mocks.NewResult(userRow("u1", "Alice")), nil).
		Maybe()
	runner.On("RunQuery", mock.Anything, "SELECT COUNT(*) AS count FROM users WHERE status = $p0", activeParams).
		Return(nil, errors.New("service down"))

	pg, err := FetchPage[user](context.Background(), e, baseQuery, activeFilter(), page.Request{Number: 1, Size: 2}, true)

	require.Error(t, err)
	assert.Nil(t, pg)
	assert.True(t, scopekitErrors.IsQueryFailure(err))

	var qerr *scopekitErrors.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "count", qerr.Op)
}

func TestFetchPage_WithTotal_DataFailureAborts(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0 LIMIT 2 OFFSET 0", activeParams).
		Return(nil, errors.New("index missing"))
	runner.On("RunQuery", mock.Anything, "SELECT COUNT(*) AS count FROM users WHERE status = $p0", activeParams).
		Return(mocks.NewResult(`{"count":5}`), nil).
		Maybe()

	pg, err := FetchPage[user](context.Background(), e, baseQuery, activeFilter(), page.Request{Number: 1, Size: 2}, true)

	require.Error(t, err)
	assert.Nil(t, pg)

	var qerr *scopekitErrors.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "query", qerr.Op)
	assert.ErrorContains(t, err, "index missing")
}

func TestFetchPage_LeavesFilterReusable(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	flt := activeFilter()
	runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0 LIMIT 3 OFFSET 0", activeParams).
		Return(mocks.NewResult(userRow("u1", "Alice")), nil)
	runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0 LIMIT 3 OFFSET 2", activeParams).
		Return(mocks.NewResult(userRow("u3", "Carol")), nil)

	first, err := FetchPage[user](context.Background(), e, baseQuery, flt, page.Request{Number: 1, Size: 2}, false)
	require.NoError(t, err)
	second, err := FetchPage[user](context.Background(), e, baseQuery, flt, page.Request{Number: 2, Size: 2}, false)
	require.NoError(t, err)

	assert.Equal(t, "Alice", first.Items[0].Name)
	assert.Equal(t, "Carol", second.Items[0].Name)

	// Paging windows never leak back into the filter.
	compiled, err := flt.Compile()
	require.NoError(t, err)
	assert.Equal(t, "WHERE status = $p0", compiled.Suffix())
	runner.AssertExpectations(t)
}

func TestAll(t *testing.T) {
	t.Run("without_filter", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		runner.On("RunQuery", mock.Anything, baseQuery, map[string]any(nil)).
			Return(mocks.NewResult(userRow("u1", "Alice"), userRow("u2", "Bob")), nil)

		items, err := All[user](context.Background(), e, baseQuery, nil)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "u1", items[0].ID)
		assert.Equal(t, "u2", items[1].ID)
		runner.AssertExpectations(t)
	})

	t.Run("applies_filter_suffix", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		flt := activeFilter().OrderBy("name", true).Take(10)
		runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0 ORDER BY name DESC LIMIT 10", activeParams).
			Return(mocks.NewResult(userRow("u1", "Alice")), nil)

		items, err := All[user](context.Background(), e, baseQuery, flt)

		require.NoError(t, err)
		require.Len(t, items, 1)
		runner.AssertExpectations(t)
	})

	t.Run("skips_null_rows", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		runner.On("RunQuery", mock.Anything, baseQuery, map[string]any(nil)).
			Return(mocks.NewResult("null", userRow("u2", "Bob")), nil)

		items, err := All[user](context.Background(), e, baseQuery, nil)

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Bob", items[0].Name)
	})

	t.Run("surfaces_compile_errors", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		flt := filter.New().Where("status", "~", "active")
		items, err := All[user](context.Background(), e, baseQuery, flt)

		require.ErrorIs(t, err, scopekitErrors.ErrUnsupportedOperator)
		assert.Nil(t, items)
		runner.AssertNotCalled(t, "RunQuery", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestFirst(t *testing.T) {
	t.Run("returns_first_row", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0 LIMIT 1", activeParams).
			Return(mocks.NewResult(userRow("u1", "Alice")), nil)

		item, err := First[user](context.Background(), e, baseQuery, activeFilter())

		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, "Alice", item.Name)
		runner.AssertExpectations(t)
	})

	t.Run("nil_when_no_rows", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0 LIMIT 1", activeParams).
			Return(mocks.NewResult(), nil)

		item, err := First[user](context.Background(), e, baseQuery, activeFilter())

		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("keeps_filter_offset", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		runner.On("RunQuery", mock.Anything, "SELECT * FROM users LIMIT 1 OFFSET 4", map[string]any{}).
			Return(mocks.NewResult(userRow("u5", "Eve")), nil)

		item, err := First[user](context.Background(), e, baseQuery, filter.New().Skip(4))

		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, "Eve", item.Name)
		runner.AssertExpectations(t)
	})

	t.Run("overrides_filter_limit", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		runner.On("RunQuery", mock.Anything, "SELECT * FROM users LIMIT 1", map[string]any{}).
			Return(mocks.NewResult(userRow("u1", "Alice")), nil)

		_, err := First[user](context.Background(), e, baseQuery, filter.New().Take(50))

		require.NoError(t, err)
		runner.AssertExpectations(t)
	})
}

func TestCount(t *testing.T) {
	t.Run("rewrites_projection", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		runner.On("RunQuery", mock.Anything, "SELECT COUNT(*) AS count FROM users WHERE status = $p0", activeParams).
			Return(mocks.NewResult(`{"count":42}`), nil)

		total, err := Count(context.Background(), e, baseQuery, activeFilter())

		require.NoError(t, err)
		assert.Equal(t, int64(42), total)
		runner.AssertExpectations(t)
	})

	t.Run("drops_ordering_and_paging", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		flt := activeFilter().OrderBy("name", false).Take(5).Skip(10)
		runner.On("RunQuery", mock.Anything, "SELECT COUNT(*) AS count FROM users WHERE status = $p0", activeParams).
			Return(mocks.NewResult(`{"count":42}`), nil)

		total, err := Count(context.Background(), e, baseQuery, flt)

		require.NoError(t, err)
		assert.Equal(t, int64(42), total)
		runner.AssertExpectations(t)
	})

	t.Run("zero_rows_counts_zero", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		runner.On("RunQuery", mock.Anything, "SELECT COUNT(*) AS count FROM users", map[string]any(nil)).
			Return(mocks.NewResult(), nil)

		total, err := Count(context.Background(), e, baseQuery, nil)

		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("rejects_other_projections", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		_, err := Count(context.Background(), e, "SELECT name FROM users", nil)

		require.ErrorIs(t, err, scopekitErrors.ErrNotCountable)
		assert.ErrorContains(t, err, `"SELECT name FROM users"`)
		assert.False(t, scopekitErrors.IsQueryFailure(err))
		runner.AssertNotCalled(t, "RunQuery", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestExecute(t *testing.T) {
	t.Run("passes_statement_and_params_verbatim", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		stmt := "SELECT u.* FROM users AS u WHERE u.age > $min"
		params := map[string]any{"min": 21}
		runner.On("RunQuery", mock.Anything, stmt, params).
			Return(mocks.NewResult(userRow("u1", "Alice")), nil)

		items, err := Execute[user](context.Background(), e, stmt, params)

		require.NoError(t, err)
		require.Len(t, items, 1)
		runner.AssertExpectations(t)
	})

	t.Run("rejects_empty_statement", func(t *testing.T) {
		runner := new(mocks.MockQueryRunner)
		e := NewExecutor(runner)

		_, err := Execute[user](context.Background(), e, "  ", nil)

		require.ErrorIs(t, err, scopekitErrors.ErrEmptyStatement)
		runner.AssertNotCalled(t, "RunQuery", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestExecutor_WrapsRunnerErrors(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	runner.On("RunQuery", mock.Anything, baseQuery, map[string]any(nil)).
		Return(nil, errors.New("socket closed"))

	items, err := All[user](context.Background(), e, baseQuery, nil)

	require.Error(t, err)
	assert.Nil(t, items)
	assert.True(t, scopekitErrors.IsQueryFailure(err))

	var qerr *scopekitErrors.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "query", qerr.Op)
	assert.Equal(t, baseQuery, qerr.Statement)
	assert.ErrorContains(t, err, "socket closed")
}

func TestExecutor_WrapsStreamErrors(t *testing.T) {
	runner := new(mocks.MockQueryRunner)
	e := NewExecutor(runner)

	result := mocks.NewResult(userRow("u1", "Alice")).WithStreamError(errors.New("stream reset"))
	runner.On("RunQuery", mock.Anything, baseQuery, map[string]any(nil)).
		Return(result, nil)

	items, err := All[user](context.Background(), e, baseQuery, nil)

	require.Error(t, err)
	assert.Nil(t, items)

	var qerr *scopekitErrors.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "stream", qerr.Op)
	assert.True(t, result.Closed())
}
