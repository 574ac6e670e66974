// Package mocks provides mock implementations for scopekit interfaces.
// These mocks are designed to be used with github.com/stretchr/testify/mock
// for unit testing applications that use scopekit.
//
// The most common use case is mocking query execution:
//
//	runner := new(mocks.MockQueryRunner)
//	runner.On("RunQuery", mock.Anything, "SELECT * FROM users WHERE status = $p0", mock.Anything).
//		Return(mocks.NewResult(`{"id":"u-1","name":"Ada"}`), nil)
//
//	executor := query.NewExecutor(runner)
//	users, err := query.All[User](ctx, executor, "SELECT * FROM users", flt)
//
//	runner.AssertExpectations(t)
//
// Statement-based matching keeps expectations deterministic even when the
// executor fans queries out concurrently.
package mocks

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/mock"

	"github.com/scopekit/scopekit/pkg/core"
)

// Runner is an alias for MockQueryRunner to allow shorter declarations
type Runner = MockQueryRunner

// MockQueryRunner is a mock implementation of the core.QueryRunner interface.
type MockQueryRunner struct {
	mock.Mock
}

// RunQuery issues the statement and returns a reader over its rows
func (m *MockQueryRunner) RunQuery(ctx context.Context, statement string, params map[string]any) (core.ResultReader, error) {
	args := m.Called(ctx, statement, params)
	return mustResultReader(args.Get(0)), args.Error(1)
}

func mustResultReader(v any) core.ResultReader {
	if v == nil {
		return nil
	}
	reader, ok := v.(core.ResultReader)
	if !ok {
		panic("unexpected type: expected core.ResultReader")
	}
	return reader
}

// StaticResult replays a fixed set of JSON rows as a core.ResultReader.
// Each instance replays once; create one per expected call.
type StaticResult struct {
	mu        sync.Mutex
	rows      [][]byte
	current   []byte
	streamErr error
	closed    bool
}

// NewResult creates a StaticResult from raw JSON rows.
func NewResult(rows ...string) *StaticResult {
	r := &StaticResult{rows: make([][]byte, 0, len(rows))}
	for _, row := range rows {
		r.rows = append(r.rows, []byte(row))
	}
	return r
}

// WithStreamError makes Err report a streaming failure once iteration ends.
func (r *StaticResult) WithStreamError(err error) *StaticResult {
	r.streamErr = err
	return r
}

// Next advances to the next row
func (r *StaticResult) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.rows) == 0 {
		return false
	}
	r.current = r.rows[0]
	r.rows = r.rows[1:]
	return true
}

// Row decodes the current row into valuePtr
func (r *StaticResult) Row(valuePtr any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return json.Unmarshal(r.current, valuePtr)
}

// Err reports the configured streaming failure, if any
func (r *StaticResult) Err() error {
	return r.streamErr
}

// Close marks the reader as released
func (r *StaticResult) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	return nil
}

// Closed reports whether Close was called, for leak assertions in tests.
func (r *StaticResult) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}
