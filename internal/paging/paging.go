// Package paging parses and clamps page/limit query parameters.
package paging

import (
	"math"
	"strconv"
)

// Request is a clamped page request. Page is 1-based.
type Request struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Offset returns the number of rows to skip, saturated at math.MaxInt32.
func (r Request) Offset() int {
	if r.Page < 1 || r.Limit < 1 {
		return 0
	}
	if r.Page > maxPage(r.Limit) {
		return math.MaxInt32
	}
	return (r.Page - 1) * r.Limit
}

// maxPage is the largest page whose offset still fits in an int32.
func maxPage(limit int) int { return math.MaxInt32/limit + 1 }

// Info is the pagination block returned with every list.
type Info struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Page is a paginated payload.
type Page[T any] struct {
	Data       []T  `json:"data"`
	Pagination Info `json:"pagination"`
}

// Parse reads raw page and limit values. Missing or unparsable values fall
// back to page 1 and defLimit; page is raised to 1, a limit below 1 becomes
// defLimit and a limit above max becomes max. Page is capped so the offset
// stays within an int32.
func Parse(rawPage, rawLimit string, defLimit, max int) Request {
	page := atoi(rawPage, 1)
	limit := atoi(rawLimit, defLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	if limit > max {
		limit = max
	}
	if page > maxPage(limit) {
		page = maxPage(limit)
	}
	return Request{Page: page, Limit: limit}
}

// NewPage wraps items with pagination info. A nil items slice is encoded as
// an empty array.
func NewPage[T any](items []T, r Request, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Data: items,
		Pagination: Info{
			Page:  r.Page,
			Limit: r.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(r.Limit))),
		},
	}
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n == 0 {
		return def
	}
	return n
}
