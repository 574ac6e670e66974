// Package filter provides the fluent condition builder for scope queries.
//
// A Filter accumulates WHERE fragments with named $pN parameter bindings,
// plus optional ordering and paging hints. Compile snapshots it into a
// core.CompiledQuery for an executor; the filter itself is never mutated by
// execution, so one filter can compile the same conditions repeatedly.
package filter

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/scopekit/scopekit/internal/n1ql"
	"github.com/scopekit/scopekit/pkg/core"
	scopekitErrors "github.com/scopekit/scopekit/pkg/errors"
)

// Filter accumulates conditions for a single query. It is not safe for
// concurrent use; build one per query.
type Filter struct {
	builder *n1ql.Builder
}

// New creates an empty filter.
func New() *Filter {
	return &Filter{builder: n1ql.NewBuilder()}
}

// Eq adds "field = $pN".
func (f *Filter) Eq(field string, value any) *Filter {
	f.builder.AddCompare(field, "=", value)
	return f
}

// Neq adds "field != $pN".
func (f *Filter) Neq(field string, value any) *Filter {
	f.builder.AddCompare(field, "!=", value)
	return f
}

// Gt adds "field > $pN".
func (f *Filter) Gt(field string, value any) *Filter {
	f.builder.AddCompare(field, ">", value)
	return f
}

// Gte adds "field >= $pN".
func (f *Filter) Gte(field string, value any) *Filter {
	f.builder.AddCompare(field, ">=", value)
	return f
}

// Lt adds "field < $pN".
func (f *Filter) Lt(field string, value any) *Filter {
	f.builder.AddCompare(field, "<", value)
	return f
}

// Lte adds "field <= $pN".
func (f *Filter) Lte(field string, value any) *Filter {
	f.builder.AddCompare(field, "<=", value)
	return f
}

// Like adds "field LIKE $pN". The pattern uses N1QL wildcards (% and _).
func (f *Filter) Like(field, pattern string) *Filter {
	f.builder.AddCompare(field, "LIKE", pattern)
	return f
}

// Contains adds "CONTAINS(field, $pN)" for substring matching.
func (f *Filter) Contains(field, substring string) *Filter {
	f.builder.AddContains(field, substring)
	return f
}

// In adds "field IN $pN" with all candidates bound as one array parameter.
// An empty candidate set renders the constant FALSE instead, since no row
// can match it.
func (f *Filter) In(field string, values ...any) *Filter {
	f.builder.AddIn(field, values)
	return f
}

// NotIn adds "field NOT IN $pN". The empty candidate set binds an empty
// array, which every row satisfies.
func (f *Filter) NotIn(field string, values ...any) *Filter {
	f.builder.AddNotIn(field, values)
	return f
}

// IsNull adds "field IS NULL" without a binding.
func (f *Filter) IsNull(field string) *Filter {
	f.builder.AddIsNull(field)
	return f
}

// IsNotNull adds "field IS NOT NULL" without a binding.
func (f *Filter) IsNotNull(field string) *Filter {
	f.builder.AddIsNotNull(field)
	return f
}

// Between adds "field BETWEEN $pN AND $pM" with two bindings.
func (f *Filter) Between(field string, lo, hi any) *Filter {
	f.builder.AddBetween(field, lo, hi)
	return f
}

// Raw adds a caller-written fragment verbatim together with its named
// bindings. Fragment correctness is the caller's responsibility; names
// should stay out of the generated p0, p1, ... range.
func (f *Filter) Raw(fragment string, values map[string]any) *Filter {
	f.builder.AddRaw(fragment, values)
	return f
}

// OrderBy sets the sort field and direction. The last call wins.
func (f *Filter) OrderBy(field string, descending bool) *Filter {
	f.builder.SetOrder(field, descending)
	return f
}

// Skip sets the OFFSET for non-paged execution. Paged execution derives its
// own window from the page request instead.
func (f *Filter) Skip(n int) *Filter {
	f.builder.SetOffset(n)
	return f
}

// Take sets the LIMIT for non-paged execution.
func (f *Filter) Take(n int) *Filter {
	f.builder.SetLimit(n)
	return f
}

// Where dispatches an operator name onto the typed condition methods. It
// exists for callers assembling conditions from data rather than code.
func (f *Filter) Where(field, op string, value any) *Filter {
	switch strings.ToUpper(strings.TrimSpace(op)) {
	case "=", "EQ":
		return f.Eq(field, value)
	case "!=", "<>", "NE":
		return f.Neq(field, value)
	case ">", "GT":
		return f.Gt(field, value)
	case ">=", "GE":
		return f.Gte(field, value)
	case "<", "LT":
		return f.Lt(field, value)
	case "<=", "LE":
		return f.Lte(field, value)
	case "LIKE":
		pattern, ok := value.(string)
		if !ok {
			f.recordError(fmt.Errorf("%w: LIKE requires a string pattern, got %T", scopekitErrors.ErrInvalidCondition, value))
			return f
		}
		return f.Like(field, pattern)
	case "CONTAINS":
		substring, ok := value.(string)
		if !ok {
			f.recordError(fmt.Errorf("%w: CONTAINS requires a string, got %T", scopekitErrors.ErrInvalidCondition, value))
			return f
		}
		return f.Contains(field, substring)
	case "IN":
		values, err := toSlice(value)
		if err != nil {
			f.recordError(err)
			return f
		}
		return f.In(field, values...)
	case "NOT IN", "NOT_IN":
		values, err := toSlice(value)
		if err != nil {
			f.recordError(err)
			return f
		}
		return f.NotIn(field, values...)
	case "BETWEEN":
		values, err := toSlice(value)
		if err != nil {
			f.recordError(err)
			return f
		}
		if len(values) != 2 {
			f.recordError(fmt.Errorf("%w: BETWEEN requires exactly two values, got %d", scopekitErrors.ErrInvalidCondition, len(values)))
			return f
		}
		return f.Between(field, values[0], values[1])
	case "IS NULL", "IS_NULL":
		return f.IsNull(field)
	case "IS NOT NULL", "IS_NOT_NULL":
		return f.IsNotNull(field)
	default:
		f.recordError(fmt.Errorf("%w: %q", scopekitErrors.ErrUnsupportedOperator, op))
		return f
	}
}

// Compile snapshots the filter into a CompiledQuery. A construction error
// recorded during chaining surfaces here instead of panicking mid-chain.
func (f *Filter) Compile() (core.CompiledQuery, error) {
	if err := f.builder.Err(); err != nil {
		return core.CompiledQuery{}, err
	}
	return f.builder.Compile(), nil
}

// ParamCount returns the number of parameters bound so far.
func (f *Filter) ParamCount() int {
	return f.builder.ParamCount()
}

func (f *Filter) recordError(err error) {
	f.builder.RecordError(err)
}

// toSlice normalizes the common slice shapes into []any.
func toSlice(value any) ([]any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case []string:
		result := make([]any, len(v))
		for i, s := range v {
			result[i] = s
		}
		return result, nil
	case []int:
		result := make([]any, len(v))
		for i, n := range v {
			result[i] = n
		}
		return result, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: expected a slice, got %T", scopekitErrors.ErrInvalidCondition, value)
	}

	result := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		result[i] = rv.Index(i).Interface()
	}
	return result, nil
}
