package listing

import (
	"time"

	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/models"
)

// Result is a filtered page ready for rendering.
type Result[T models.Record] struct {
	Items      []T
	Pagination Pagination
	// Filtered holds every record that passed the filter, before slicing.
	Filtered []T
}

// Apply filters records and slices the requested page. When the backend
// already paginated (meta non-nil) the records are the requested page: they
// are filtered but not sliced again, and the total comes from meta.
func Apply[T models.Record](records []T, meta *backend.Meta, q Query, loc *time.Location) Result[T] {
	filtered := Filter(records, q, loc)
	if meta != nil {
		total := meta.Total
		if total < len(filtered) {
			total = len(filtered)
		}
		page := q.Page
		if meta.Page > 0 {
			page = meta.Page
		}
		limit := q.Limit
		if meta.Limit > 0 {
			limit = meta.Limit
		}
		return Result[T]{Items: filtered, Filtered: filtered, Pagination: NewPagination(page, limit, total)}
	}
	items, p := Paginate(filtered, q.Page, q.Limit)
	return Result[T]{Items: items, Filtered: filtered, Pagination: p}
}
