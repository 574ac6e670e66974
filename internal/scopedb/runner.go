// Package scopedb adapts Couchbase SDK handles to the core interfaces. SDK
// types stay inside this package and the facade; everything else depends on
// core.QueryRunner and core.KeyValueStore.
package scopedb

import (
	"context"
	"strings"

	"github.com/couchbase/gocb/v2"
	"github.com/goccy/go-json"

	"github.com/scopekit/scopekit/pkg/core"
)

// Runner executes N1QL statements against a single scope.
type Runner struct {
	scope       *gocb.Scope
	consistency gocb.QueryScanConsistency
	readonly    bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// Readonly marks every statement as read-only so the query service rejects
// mutating statements up front.
func Readonly() RunnerOption {
	return func(r *Runner) {
		r.readonly = true
	}
}

// RequestPlus makes every query wait for the indexer to catch up with the
// mutations issued before it, trading latency for read-your-own-writes
// semantics.
func RequestPlus() RunnerOption {
	return func(r *Runner) {
		r.consistency = gocb.QueryScanConsistencyRequestPlus
	}
}

// NewRunner wraps a scope handle.
func NewRunner(scope *gocb.Scope, opts ...RunnerOption) *Runner {
	r := &Runner{scope: scope}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunQuery issues the statement with server-side named parameters. SDK
// errors come back untranslated; the executor layer annotates them with the
// statement.
func (r *Runner) RunQuery(ctx context.Context, statement string, params map[string]any) (core.ResultReader, error) {
	result, err := r.scope.Query(statement, &gocb.QueryOptions{
		Context:         ctx,
		NamedParameters: params,
		Readonly:        r.readonly,
		ScanConsistency: r.consistency,
	})
	if err != nil {
		return nil, err
	}
	return newQueryRows(result, statement), nil
}

// rowSource is the slice of gocb.QueryResult the reader needs, factored out
// so envelope handling is testable without a cluster.
type rowSource interface {
	Next() bool
	Row(valuePtr any) error
	Err() error
	Close() error
}

// queryRows adapts a query result to core.ResultReader. The server nests
// each SELECT * row under its keyspace name; those single-key envelopes are
// flattened so downstream mapping sees the document itself.
type queryRows struct {
	src    rowSource
	unwrap bool
}

func newQueryRows(src rowSource, statement string) *queryRows {
	return &queryRows{src: src, unwrap: isSelectStar(statement)}
}

func (q *queryRows) Next() bool {
	return q.src.Next()
}

func (q *queryRows) Row(valuePtr any) error {
	var raw json.RawMessage
	if err := q.src.Row(&raw); err != nil {
		return err
	}
	if q.unwrap {
		raw = unwrapEnvelope(raw)
	}
	return json.Unmarshal(raw, valuePtr)
}

func (q *queryRows) Err() error {
	return q.src.Err()
}

func (q *queryRows) Close() error {
	return q.src.Close()
}

// isSelectStar reports whether the statement uses the bare star projection,
// the one projection whose rows arrive keyspace-wrapped.
func isSelectStar(statement string) bool {
	const prefix = "SELECT *"
	s := strings.TrimSpace(statement)
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// unwrapEnvelope unnests a {"keyspace": {...}} row. Rows that are not a
// single-key object pass through untouched.
func unwrapEnvelope(raw json.RawMessage) json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope) != 1 {
		return raw
	}
	for _, inner := range envelope {
		return inner
	}
	return raw
}
