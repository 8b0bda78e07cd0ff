// Package listing implements the filter, paginate and export steps every
// console list view shares.
package listing

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickwarner/troyconsole/internal/models"
)

// DefaultLimit is used when a query carries no usable limit.
const DefaultLimit = 10

// MaxLimit bounds the page size a client can request.
const MaxLimit = 200

// Query is the page and filter state of a list view.
type Query struct {
	Page   int
	Limit  int
	Status string
	Search string
	From   string
	To     string
}

// ParseQuery reads a Query from URL values. Invalid numbers fall back to
// page 1 and defaultLimit.
func ParseQuery(v url.Values, defaultLimit int) Query {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	q := Query{
		Page:   atoiDefault(v.Get("page"), 1),
		Limit:  atoiDefault(v.Get("limit"), defaultLimit),
		Status: strings.TrimSpace(v.Get("status")),
		Search: strings.TrimSpace(v.Get("search")),
		From:   strings.TrimSpace(v.Get("from")),
		To:     strings.TrimSpace(v.Get("to")),
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// Values renders the backend query string for q. Empty and "all" filters
// are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if !isAll(q.Status) {
		v.Set("status", q.Status)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	return v
}

func isAll(s string) bool { return s == "" || strings.EqualFold(s, "all") }

// Filter keeps the records matching q's status, search and date range. The
// search is a case-insensitive substring over each record's search fields;
// the date range is inclusive and compares calendar days in loc. Records
// with an unparseable date are dropped only when a range is set.
func Filter[T models.Record](items []T, q Query, loc *time.Location) []T {
	if loc == nil {
		loc = time.Local
	}
	needle := strings.ToLower(q.Search)
	from, hasFrom := day(q.From, loc)
	to, hasTo := day(q.To, loc)

	out := make([]T, 0, len(items))
	for _, it := range items {
		if !isAll(q.Status) && it.StatusKey() != q.Status {
			continue
		}
		if needle != "" && !matchesSearch(it, needle) {
			continue
		}
		if hasFrom || hasTo {
			d, ok := day(it.DateKey(), loc)
			if !ok || (hasFrom && d.Before(from)) || (hasTo && d.After(to)) {
				continue
			}
		}
		out = append(out, it)
	}
	return out
}

func matchesSearch(r models.Record, needle string) bool {
	for _, f := range r.SearchText() {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// day truncates a parsed date to midnight in loc.
func day(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := models.ParseDate(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
}

// Pagination describes one page of a list.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// Pages lists the page numbers for a pagination bar.
func (p Pagination) Pages() []int {
	out := make([]int, 0, p.TotalPages)
	for i := 1; i <= p.TotalPages; i++ {
		out = append(out, i)
	}
	return out
}

// NewPagination computes page counts for total records.
func NewPagination(page, limit, total int) Pagination {
	if limit < 1 {
		limit = DefaultLimit
	}
	if page < 1 {
		page = 1
	}
	pages := (total + limit - 1) / limit
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// Paginate returns items (page-1)*limit .. page*limit. Pages below 1 clamp to
// 1; pages past the end are empty. Concatenating pages 1..n reconstructs items.
func Paginate[T any](items []T, page, limit int) ([]T, Pagination) {
	p := NewPagination(page, limit, len(items))
	start := (p.Page - 1) * p.Limit
	if start >= len(items) {
		return []T{}, p
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], p
}
