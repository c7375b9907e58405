package store

import "math"

// Paging limits shared by every list operation.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects one page of a listing. Pages are 1-based.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize returns a copy with out-of-range values replaced by defaults
// and the page size capped at MaxPageSize.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Limit is the SQL LIMIT for the page.
func (p PageRequest) Limit() int {
	return p.Normalize().PageSize
}

// MaxPage is the largest page whose offset fits in an int at the given page size.
func MaxPage(pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	n := math.MaxInt / pageSize
	if n == math.MaxInt {
		return n
	}
	return n + 1
}

// Offset is the SQL OFFSET for the page. It saturates at math.MaxInt
// instead of overflowing.
func (p PageRequest) Offset() int {
	n := p.Normalize()
	if n.Page > MaxPage(n.PageSize) {
		return math.MaxInt
	}
	return (n.Page - 1) * n.PageSize
}

// Page is one page of results together with the total number of matches.
type Page[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int
}

// NewPage builds a Page for req from the items and total count a store returned.
func NewPage[T any](items []T, req PageRequest, total int) Page[T] {
	n := req.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Page: n.Page, PageSize: n.PageSize, Total: total}
}

// TotalPages is the number of pages needed to show Total items.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
