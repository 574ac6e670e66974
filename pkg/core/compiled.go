package core

import (
	"strconv"
	"strings"
)

// CompiledQuery is an immutable snapshot of a filter, ready for execution.
// Compiling copies the parameter map, so an executor holding a CompiledQuery
// never observes later builder activity, and the pagination helpers return
// modified copies rather than mutating in place.
type CompiledQuery struct {
	Params     map[string]any
	Where      string
	OrderField string
	Limit      *int
	Offset     *int
	OrderDesc  bool
}

// WhereClause returns "WHERE <conditions>", or "" when the query has none.
func (q CompiledQuery) WhereClause() string {
	if q.Where == "" {
		return ""
	}
	return "WHERE " + q.Where
}

// Suffix renders the full query suffix. Clauses always appear in the fixed
// order WHERE, ORDER BY, LIMIT, OFFSET regardless of the order the filter
// methods were called in.
func (q CompiledQuery) Suffix() string {
	var parts []string

	if clause := q.WhereClause(); clause != "" {
		parts = append(parts, clause)
	}

	if q.OrderField != "" {
		order := "ORDER BY " + q.OrderField
		if q.OrderDesc {
			order += " DESC"
		}
		parts = append(parts, order)
	}

	if q.Limit != nil {
		parts = append(parts, "LIMIT "+strconv.Itoa(*q.Limit))
	}

	if q.Offset != nil {
		parts = append(parts, "OFFSET "+strconv.Itoa(*q.Offset))
	}

	return strings.Join(parts, " ")
}

// WithPagination returns a copy whose LIMIT and OFFSET are pinned to the
// given window. The receiver is left untouched.
func (q CompiledQuery) WithPagination(limit, offset int) CompiledQuery {
	q.Limit = &limit
	q.Offset = &offset
	return q
}

// WithLimit returns a copy whose LIMIT is pinned to n, keeping any OFFSET.
func (q CompiledQuery) WithLimit(n int) CompiledQuery {
	q.Limit = &n
	return q
}
