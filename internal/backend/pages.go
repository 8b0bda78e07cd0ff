package backend

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// maxPages stops a walk against a backend whose totals never converge.
const maxPages = 1000

// ErrIncomplete is returned by FetchAll, together with the rows it did get,
// when the backend runs out of rows before its reported total.
var ErrIncomplete = errors.New("backend returned fewer rows than its total")

// FetchAll calls fetch for page 1 of q and, while the backend reports more
// rows than received so far, for the pages after it. limit is the page size
// requested. A response without pagination metadata is taken as the whole
// list.
func FetchAll[T any](q url.Values, limit int, fetch func(url.Values) ([]T, *Meta, error)) ([]T, error) {
	var all []T
	for page := 1; page <= maxPages; page++ {
		v := url.Values{}
		for k, vs := range q {
			v[k] = append([]string(nil), vs...)
		}
		v.Set("page", strconv.Itoa(page))
		if limit > 0 {
			v.Set("limit", strconv.Itoa(limit))
		}
		items, meta, err := fetch(v)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if meta == nil || len(all) >= meta.Total {
			return all, nil
		}
		if len(items) == 0 {
			return all, fmt.Errorf("%w: got %d of %d", ErrIncomplete, len(all), meta.Total)
		}
	}
	return all, fmt.Errorf("%w: stopped after %d pages with %d rows", ErrIncomplete, maxPages, len(all))
}
