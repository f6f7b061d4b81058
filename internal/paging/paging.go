// Package paging provides fixed-size windows over an ordered result list.
package paging

import "math"

// DefaultPageSize is the number of venues shown per list message
const DefaultPageSize = 5

// ResultPage is one window over an ordered sequence
type ResultPage[T any] struct {
	Items       []T  `json:"items"`
	PageIndex   int  `json:"page_index"`
	StartIndex  int  `json:"start_index"`
	PageSize    int  `json:"page_size"`
	TotalCount  int  `json:"total_count"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Page returns the pageIndex-th window of pageSize items. A window past the
// end has no items; callers check len(Items) instead of handling an error.
// A negative pageIndex is treated as 0 and a non-positive pageSize as
// DefaultPageSize.
func Page[T any](results []T, pageIndex, pageSize int) ResultPage[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageIndex < 0 {
		pageIndex = 0
	}

	page := ResultPage[T]{
		Items:       []T{},
		PageIndex:   pageIndex,
		PageSize:    pageSize,
		TotalCount:  len(results),
		HasPrevious: pageIndex > 0,
	}

	// Checked before multiplying so a huge index cannot overflow
	if pageIndex >= PageCount(len(results), pageSize) {
		page.StartIndex = math.MaxInt
		if pageIndex <= math.MaxInt/pageSize {
			page.StartIndex = pageIndex * pageSize
		}
		return page
	}

	page.StartIndex = pageIndex * pageSize
	end := min(page.StartIndex+pageSize, len(results))
	page.Items = results[page.StartIndex:end]
	page.HasNext = end < len(results)
	return page
}

// Item is the single-item cursor used by detail carousels (page size 1).
// ok is false when index is out of range.
func Item[T any](results []T, index int) (item T, hasPrevious, hasNext, ok bool) {
	p := Page(results, index, 1)
	if index < 0 || len(p.Items) == 0 {
		return item, p.HasPrevious, false, false
	}
	return p.Items[0], p.HasPrevious, p.HasNext, true
}

// PageCount returns how many pages of pageSize are needed for total items
func PageCount(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
