// Package n1ql assembles parameterized N1QL condition fragments.
package n1ql

import (
	"fmt"
	"strings"

	"github.com/scopekit/scopekit/pkg/core"
)

// Builder accumulates WHERE fragments and their named parameter bindings for
// a single query. Parameter names are generated from a per-builder counter,
// never from the map size, so removing or merging bindings can not make two
// fragments reference the same name.
type Builder struct {
	params       map[string]any
	conditions   []string
	orderField   string
	limit        *int
	offset       *int
	paramCounter int
	orderDesc    bool
	err          error
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		params: make(map[string]any),
	}
}

// nextParam binds value under the next generated name and returns the
// placeholder to splice into a fragment. Names run p0, p1, p2, ...
func (b *Builder) nextParam(value any) string {
	name := fmt.Sprintf("p%d", b.paramCounter)
	b.paramCounter++
	b.params[name] = value
	return "$" + name
}

// AddCompare appends "field op $pN" with a single binding. The operator is
// spliced verbatim; callers pick from the fixed comparison set.
func (b *Builder) AddCompare(field, op string, value any) {
	b.conditions = append(b.conditions, fmt.Sprintf("%s %s %s", field, op, b.nextParam(value)))
}

// AddContains appends "CONTAINS(field, $pN)".
func (b *Builder) AddContains(field string, value any) {
	b.conditions = append(b.conditions, fmt.Sprintf("CONTAINS(%s, %s)", field, b.nextParam(value)))
}

// AddIn appends "field IN $pN" with the whole slice as one binding. An empty
// slice can never match, so it collapses to a constant FALSE fragment with
// no binding at all.
func (b *Builder) AddIn(field string, values []any) {
	if len(values) == 0 {
		b.conditions = append(b.conditions, "FALSE")
		return
	}
	b.conditions = append(b.conditions, fmt.Sprintf("%s IN %s", field, b.nextParam(values)))
}

// AddNotIn appends "field NOT IN $pN". Unlike AddIn there is no empty-slice
// guard: NOT IN over an empty array already holds for every row. A nil slice
// binds as an empty array rather than null, which would match nothing.
func (b *Builder) AddNotIn(field string, values []any) {
	if values == nil {
		values = []any{}
	}
	b.conditions = append(b.conditions, fmt.Sprintf("%s NOT IN %s", field, b.nextParam(values)))
}

// AddIsNull appends "field IS NULL" without a binding.
func (b *Builder) AddIsNull(field string) {
	b.conditions = append(b.conditions, field+" IS NULL")
}

// AddIsNotNull appends "field IS NOT NULL" without a binding.
func (b *Builder) AddIsNotNull(field string) {
	b.conditions = append(b.conditions, field+" IS NOT NULL")
}

// AddBetween appends "field BETWEEN $pN AND $pM", binding the lower bound
// first.
func (b *Builder) AddBetween(field string, lo, hi any) {
	b.conditions = append(b.conditions, fmt.Sprintf("%s BETWEEN %s AND %s", field, b.nextParam(lo), b.nextParam(hi)))
}

// AddRaw appends a caller-written fragment verbatim and merges its named
// bindings. Caller-chosen names colliding with generated ones overwrite the
// binding, so raw fragments should avoid the generated p0, p1, ... range.
func (b *Builder) AddRaw(fragment string, values map[string]any) {
	b.conditions = append(b.conditions, fragment)
	for name, value := range values {
		b.params[name] = value
	}
}

// SetOrder replaces the sort field and direction; the last call wins.
func (b *Builder) SetOrder(field string, descending bool) {
	b.orderField = field
	b.orderDesc = descending
}

// SetLimit replaces the LIMIT value.
func (b *Builder) SetLimit(n int) {
	b.limit = &n
}

// SetOffset replaces the OFFSET value.
func (b *Builder) SetOffset(n int) {
	b.offset = &n
}

// RecordError stores a construction failure to be surfaced at compile time.
// The first recorded error wins.
func (b *Builder) RecordError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns the first recorded construction error, if any.
func (b *Builder) Err() error {
	return b.err
}

// ParamCount returns the number of bound parameters.
func (b *Builder) ParamCount() int {
	return len(b.params)
}

// Compile snapshots the builder into an immutable CompiledQuery. The
// parameter map is copied so continued builder use can not leak into a
// compiled query already handed to an executor.
func (b *Builder) Compile() core.CompiledQuery {
	params := make(map[string]any, len(b.params))
	for name, value := range b.params {
		params[name] = value
	}

	compiled := core.CompiledQuery{
		Where:      strings.Join(b.conditions, " AND "),
		Params:     params,
		OrderField: b.orderField,
		OrderDesc:  b.orderDesc,
	}

	if b.limit != nil {
		limit := *b.limit
		compiled.Limit = &limit
	}
	if b.offset != nil {
		offset := *b.offset
		compiled.Offset = &offset
	}

	return compiled
}
