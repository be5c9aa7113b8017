// Package listing implements the search and pagination of list views.
//
// Collections are fetched whole from the upstream API and narrowed in memory:
// a case-insensitive substring filter over a few text fields, then an
// offset-based page with a size taken from a fixed set of options.
package listing

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Query parameter names read by ParseQuery.
const (
	ParamSearch  = "search"
	ParamPage    = "page"
	ParamPerPage = "per_page"
)

// DefaultPageSize is used when no (or an unsupported) page size is requested.
const DefaultPageSize = 10

// PageSizes are the page sizes a list view can select.
var PageSizes = []int{10, 20, 30, 40, 50}

// Record is one decoded JSON object of an upstream collection.
type Record = map[string]any

// Query is the listing state requested by a client.
type Query struct {
	Search  string
	Page    int
	PerPage int
}

// Meta describes the page returned to the client.
type Meta struct {
	Page      int `json:"page"`
	PerPage   int `json:"per_page"`
	Total     int `json:"total"`
	PageCount int `json:"page_count"`
}

// Page is one page of a filtered collection.
type Page[T any] struct {
	Items []T
	Meta  Meta
}

// ParseQuery reads search, page and per_page from query values.
// It reports whether any of them was present. Malformed numbers fall back
// to page 1 and DefaultPageSize.
func ParseQuery(values url.Values) (Query, bool) {
	q := Query{Page: 1, PerPage: DefaultPageSize}

	present := values.Has(ParamSearch) || values.Has(ParamPage) || values.Has(ParamPerPage)

	q.Search = values.Get(ParamSearch)

	if page, err := strconv.Atoi(values.Get(ParamPage)); err == nil {
		q.Page = page
	}
	if perPage, err := strconv.Atoi(values.Get(ParamPerPage)); err == nil {
		q.PerPage = perPage
	}

	return q, present
}

// ValidPageSize reports whether size is one of PageSizes.
func ValidPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Filter keeps the records whose value for any of fields contains term,
// ignoring case. A blank term keeps every record; any other term is matched
// as typed, surrounding spaces included.
func Filter(items []Record, term string, fields []string) []Record {
	if strings.TrimSpace(term) == "" {
		return items
	}

	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]Record, 0, len(items))
	for _, item := range items {
		for _, field := range fields {
			text, ok := textValue(item[field])
			if !ok {
				continue
			}
			if strings.Contains(fold.String(text), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// textValue renders scalar JSON values as text. Objects, arrays and null
// never match.
func textValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		// json.Number
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// Paginate returns page `page` of items.
//
// perPage outside PageSizes becomes DefaultPageSize. The page count is
// max(1, ceil(total/perPage)) and page is clamped into [1, page count].
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if !ValidPageSize(perPage) {
		perPage = DefaultPageSize
	}

	total := len(items)
	pageCount := int(math.Ceil(float64(total) / float64(perPage)))
	if pageCount < 1 {
		pageCount = 1
	}

	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	start := (page - 1) * perPage
	end := min(total, start+perPage)
	if start > end {
		start = end
	}

	return Page[T]{
		Items: items[start:end],
		Meta: Meta{
			Page:      page,
			PerPage:   perPage,
			Total:     total,
			PageCount: pageCount,
		},
	}
}
