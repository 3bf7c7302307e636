package domain

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// NewPage normalizes a requested page: number defaults to 1, limit defaults
// to DefaultPageLimit and is clamped to maxLimit.
func NewPage(number, limit, maxLimit int) Page {
	if maxLimit <= 0 {
		maxLimit = MaxPageLimit
	}
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Number: number, Limit: limit}
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

// Pagination describes the position of a returned page.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	Limit       int  `json:"limit"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// NewPagination derives the page counts from total matching items.
func NewPagination(p Page, total int) Pagination {
	pages := 0
	if p.Limit > 0 && total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{
		CurrentPage: p.Number,
		TotalPages:  pages,
		TotalItems:  total,
		Limit:       p.Limit,
		HasNext:     p.Number < pages,
		HasPrev:     p.Number > 1,
	}
}

// Paginate returns the slice of items that falls on page p.
func Paginate[T any](items []T, p Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
