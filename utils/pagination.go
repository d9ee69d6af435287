package utils

import (
	"html/template"
	"net/url"
	"strconv"
)

// Page is one page of a listing.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Number  int   `json:"page"`
	PerPage int   `json:"page_size"`
	Total   int64 `json:"total"`
}

// PageCount is the number of pages needed for Total items.
func (p Page[T]) PageCount() int {
	if p.PerPage <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p Page[T]) HasPrev() bool   { return p.Number > 1 }
func (p Page[T]) HasNext() bool   { return p.Number < p.PageCount() }
func (p Page[T]) PrevNumber() int { return p.Number - 1 }
func (p Page[T]) NextNumber() int { return p.Number + 1 }

// OutOfRange reports a page past the last one. The first page is always in range.
func (p Page[T]) OutOfRange() bool {
	return p.Number > 1 && p.Number > p.PageCount()
}

// Offset is the number of rows to skip for this page.
func (p Page[T]) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// ParsePage reads a 1-based page number, falling back to 1.
func ParsePage(s string) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return 1
}

// PageURL rewrites the page parameter of query and keeps every other parameter.
func PageURL(query url.Values, page int) template.URL {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	q.Set("page", strconv.Itoa(page))
	return template.URL("?" + q.Encode())
}
