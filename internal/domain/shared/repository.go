package shared

const (
	defaultPageSize = 20
	// MaxPageSize caps list queries regardless of what the caller asks for
	MaxPageSize = 100
)

// Filter selects one page of a list query. Filters holds equality criteria
// keyed by column; repositories ignore keys they do not understand.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Filters  map[string]any
}

// DefaultFilter is the first page, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: defaultPageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  map[string]any{},
	}
}

// With returns a copy of f with one more criterion
func (f Filter) With(key string, value any) Filter {
	criteria := make(map[string]any, len(f.Filters)+1)
	for k, v := range f.Filters {
		criteria[k] = v
	}
	criteria[key] = value
	f.Filters = criteria
	return f
}

func (f Filter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Paginated is one page of results plus the totals needed to render a pager
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	p := Paginated[T]{Items: items, Total: total, Page: page, PageSize: pageSize}
	if pageSize > 0 {
		p.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return p
}
