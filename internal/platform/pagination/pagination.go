// Package pagination implements page-number metadata for offset/limit list
// queries. The calculator is pure; callers load one page plus the matching
// total count and derive the navigation fields from those numbers.
package pagination

// DefaultPageSize is the page size applied by list endpoints.
const DefaultPageSize = 10

// Result carries the navigation metadata for one page of a listing.
// NextPage and PrevPage are nil when there is no such page.
type Result struct {
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	NextPage   *int `json:"nextPage"`
	HasPrev    bool `json:"hasPrev"`
	PrevPage   *int `json:"prevPage"`
	ShownCount int  `json:"shownCount"`
}

// Compute derives page metadata from a 1-based page number, the page size,
// and the total row count. page >= 1 and pageSize >= 1 are preconditions;
// handlers clamp user input before calling.
func Compute(page, pageSize int, totalCount int64) Result {
	total := int(totalCount)
	if total < 0 {
		total = 0
	}

	totalPages := (total + pageSize - 1) / pageSize

	shown := page * pageSize
	if shown > total {
		shown = total
	}

	res := Result{
		TotalPages: totalPages,
		HasNext:    page*pageSize < total,
		HasPrev:    page > 1,
		ShownCount: shown,
	}
	if res.HasNext {
		next := page + 1
		res.NextPage = &next
	}
	if res.HasPrev {
		prev := page - 1
		res.PrevPage = &prev
	}
	return res
}

// Offset returns the number of rows to skip for the given 1-based page.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
