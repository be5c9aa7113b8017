package listing

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	items := []Record{
		{"name": "Acme"},
		{"name": "Beta"},
	}

	got := Filter(items, "ac", []string{"name"})
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0]["name"])

	got = Filter(items, "AC", []string{"name"})
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0]["name"])
}

func TestFilter_TermIsNotTrimmed(t *testing.T) {
	items := []Record{
		{"name": "Jo Ann"},
		{"name": "Joann"},
	}

	got := Filter(items, " ann", []string{"name"})
	require.Len(t, got, 1)
	assert.Equal(t, "Jo Ann", got[0]["name"])

	assert.Len(t, Filter(items, " \t ", []string{"name"}), 2)
}

func TestFilter_MultipleFields(t *testing.T) {
	items := []Record{
		{"name": "Jane", "email": "jane@example.com", "phone": "+911234"},
		{"name": "John", "email": "john@rinsr.in", "phone": json.Number("98765")},
		{"name": "Ann", "email": nil, "tags": []any{"rinsr"}},
	}

	tests := []struct {
		name string
		term string
		want []string
	}{
		{name: "email", term: "RINSR", want: []string{"John"}},
		{name: "phone string", term: "1234", want: []string{"Jane"}},
		{name: "phone number", term: "876", want: []string{"John"}},
		{name: "blank keeps all", term: "   ", want: []string{"Jane", "John", "Ann"}},
		{name: "no match", term: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(items, tt.term, []string{"name", "email", "phone"})

			names := make([]string, 0, len(got))
			for _, r := range got {
				names = append(names, r["name"].(string))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	page := Paginate(items, 3, 10)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 3, page.Meta.PageCount)
	assert.Equal(t, 3, page.Meta.Page)
	assert.Equal(t, 25, page.Meta.Total)
	assert.Equal(t, []int{20, 21, 22, 23, 24}, page.Items)
}

func TestPaginate_Clamping(t *testing.T) {
	items := make([]int, 25)

	tests := []struct {
		name      string
		items     []int
		page      int
		perPage   int
		wantPage  int
		wantSize  int
		wantLen   int
		wantCount int
	}{
		{name: "page below range", items: items, page: 0, perPage: 10, wantPage: 1, wantSize: 10, wantLen: 10, wantCount: 3},
		{name: "page above range", items: items, page: 9, perPage: 20, wantPage: 2, wantSize: 20, wantLen: 5, wantCount: 2},
		{name: "unsupported size", items: items, page: 1, perPage: 7, wantPage: 1, wantSize: 10, wantLen: 10, wantCount: 3},
		{name: "empty collection", items: nil, page: 4, perPage: 50, wantPage: 1, wantSize: 50, wantLen: 0, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(tt.items, tt.page, tt.perPage)
			assert.Equal(t, tt.wantPage, page.Meta.Page)
			assert.Equal(t, tt.wantSize, page.Meta.PerPage)
			assert.Len(t, page.Items, tt.wantLen)
			assert.Equal(t, tt.wantCount, page.Meta.PageCount)
		})
	}
}

func TestParseQuery(t *testing.T) {
	q, present := ParseQuery(url.Values{})
	assert.False(t, present)
	assert.Equal(t, Query{Page: 1, PerPage: DefaultPageSize}, q)

	q, present = ParseQuery(url.Values{"search": {"  acme "}, "page": {"2"}, "per_page": {"20"}})
	assert.True(t, present)
	assert.Equal(t, Query{Search: "  acme ", Page: 2, PerPage: 20}, q)

	q, present = ParseQuery(url.Values{"page": {"two"}})
	assert.True(t, present)
	assert.Equal(t, 1, q.Page)
}
