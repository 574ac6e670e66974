// Package page implements page-number/page-size pagination math.
//
// Requests address 1-based pages of a fixed size. A fetched Page carries its
// items plus enough metadata to derive navigation state; the exact total row
// count is optional and its absence is distinguishable from zero.
package page

import (
	"fmt"
	"math"

	scopekitErrors "github.com/scopekit/scopekit/pkg/errors"
)

// Request identifies one page of a result set. Numbering starts at 1.
type Request struct {
	Number int
	Size   int
}

// Validate rejects page coordinates outside the 1-based window. Executors
// call this before issuing any statement.
func (r Request) Validate() error {
	if r.Number < 1 {
		return fmt.Errorf("%w: %w (got %d)", scopekitErrors.ErrInvalidPageRequest, scopekitErrors.ErrInvalidPageNumber, r.Number)
	}
	if r.Size < 1 {
		return fmt.Errorf("%w: %w (got %d)", scopekitErrors.ErrInvalidPageRequest, scopekitErrors.ErrInvalidPageSize, r.Size)
	}
	return nil
}

// Offset returns the number of rows preceding this page.
func (r Request) Offset() int {
	return (r.Number - 1) * r.Size
}

// TotalPages returns how many size-sized pages cover total rows, rounding
// the real quotient up so a partial trailing page counts as a full one.
func TotalPages(total int64, size int) int {
	if total <= 0 || size < 1 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(size)))
}

// Page holds one window of items plus derived navigation metadata. It is
// assembled once per fetch and read-only afterwards.
type Page[T any] struct {
	Items      []T
	TotalCount *int64
	Number     int
	Size       int
	hasMore    bool
}

// New assembles a page without a total count. hasMore reports whether at
// least one more row exists past this window.
func New[T any](items []T, req Request, hasMore bool) *Page[T] {
	return &Page[T]{
		Items:   items,
		Number:  req.Number,
		Size:    req.Size,
		hasMore: hasMore,
	}
}

// NewWithTotal assembles a page with an exact total row count.
func NewWithTotal[T any](items []T, req Request, total int64) *Page[T] {
	return &Page[T]{
		Items:      items,
		Number:     req.Number,
		Size:       req.Size,
		TotalCount: &total,
	}
}

// TotalPages returns the page count, or 0 when the total was not requested.
func (p *Page[T]) TotalPages() int {
	if p.TotalCount == nil {
		return 0
	}
	return TotalPages(*p.TotalCount, p.Size)
}

// HasPreviousPage reports whether a page exists before this one.
func (p *Page[T]) HasPreviousPage() bool {
	return p.Number > 1
}

// HasNextPage reports whether a page exists after this one. With a known
// total it compares against the page count; otherwise it falls back to the
// has-more hint captured at fetch time.
func (p *Page[T]) HasNextPage() bool {
	if p.TotalCount != nil {
		return p.Number < p.TotalPages()
	}
	return p.hasMore
}
