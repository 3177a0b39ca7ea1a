package query

// Order is a sort direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// SortField names a column the media listing can be ordered by.
type SortField string

const (
	SortTitle     SortField = "title"
	SortCreatedAt SortField = "created_at"
)

// Sort pairs a field with a direction. The listing always sorts explicitly;
// there is no insertion-order fallback.
type Sort struct {
	Field SortField
	Order Order
}

// DefaultSort is applied when the caller does not pick a sort key.
var DefaultSort = Sort{Field: SortCreatedAt, Order: OrderDesc}

// DefaultPerPage bounds listings when the caller does not pass per_page.
const DefaultPerPage = 25

// Pagination is 1-indexed page-based pagination. Out-of-range pages yield
// empty result sets, never errors.
type Pagination struct {
	PerPage int
	Page    int
}

func (p Pagination) Limit() int {
	if p.PerPage < 1 {
		return DefaultPerPage
	}
	return p.PerPage
}

func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}
