package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int {
	return &n
}

func TestCompiledQuery_WhereClause(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		q := CompiledQuery{}
		assert.Equal(t, "", q.WhereClause())
	})

	t.Run("joined_conditions", func(t *testing.T) {
		q := CompiledQuery{Where: "status = $p0 AND age >= $p1"}
		assert.Equal(t, "WHERE status = $p0 AND age >= $p1", q.WhereClause())
	})
}

func TestCompiledQuery_Suffix(t *testing.T) {
	tests := []struct {
		name     string
		query    CompiledQuery
		expected string
	}{
		{
			name:     "empty",
			query:    CompiledQuery{},
			expected: "",
		},
		{
			name:     "where_only",
			query:    CompiledQuery{Where: "status = $p0"},
			expected: "WHERE status = $p0",
		},
		{
			name:     "order_by_ascending",
			query:    CompiledQuery{OrderField: "createdAt"},
			expected: "ORDER BY createdAt",
		},
		{
			name:     "order_by_descending",
			query:    CompiledQuery{OrderField: "createdAt", OrderDesc: true},
			expected: "ORDER BY createdAt DESC",
		},
		{
			name:     "limit_and_offset",
			query:    CompiledQuery{Limit: intPtr(25), Offset: intPtr(50)},
			expected: "LIMIT 25 OFFSET 50",
		},
		{
			name: "all_clauses_in_fixed_order",
			query: CompiledQuery{
				Where:      "status = $p0",
				OrderField: "name",
				OrderDesc:  true,
				Limit:      intPtr(10),
				Offset:     intPtr(20),
			},
			expected: "WHERE status = $p0 ORDER BY name DESC LIMIT 10 OFFSET 20",
		},
		{
			name:     "offset_without_limit",
			query:    CompiledQuery{Where: "a = $p0", Offset: intPtr(5)},
			expected: "WHERE a = $p0 OFFSET 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.query.Suffix())
		})
	}
}

func TestCompiledQuery_WithPagination(t *testing.T) {
	original := CompiledQuery{
		Where:  "status = $p0",
		Params: map[string]any{"p0": "active"},
		Limit:  intPtr(3),
		Offset: intPtr(9),
	}

	window := original.WithPagination(25, 225)

	assert.Equal(t, "WHERE status = $p0 LIMIT 25 OFFSET 225", window.Suffix())

	// The receiver keeps its own window untouched
	assert.Equal(t, 3, *original.Limit)
	assert.Equal(t, 9, *original.Offset)

	// Parameters are shared, not duplicated
	assert.Equal(t, original.Params, window.Params)
}

func TestCompiledQuery_WithLimit(t *testing.T) {
	original := CompiledQuery{Offset: intPtr(40)}

	limited := original.WithLimit(1)

	assert.Equal(t, "LIMIT 1 OFFSET 40", limited.Suffix())
	assert.Nil(t, original.Limit)
}
