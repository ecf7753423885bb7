package shared

// Listing page size bounds. Callers never get more than maxPerPage rows
// regardless of what the request asked for.
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Pagination carries the clamped paging window for a listing query plus
// the totals the response envelope reports.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination clamps the requested window and derives the totals.
// Out-of-range inputs fall back to page 1 and the default page size.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := (total + perPage - 1) / perPage
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the number of rows to skip for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasNext reports whether another page exists after the current one.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}
