package store

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageQuery selects one page of a listing. Page is zero based.
type PageQuery struct {
	Page       int
	PageSize   int
	OrderBy    string
	Descending bool
	Deleted    bool
	Keyword    string
	// Filters are equality conditions keyed by column. Stores ignore
	// columns they do not whitelist.
	Filters map[string]any
}

// Normalize clamps the page bounds.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

func (q PageQuery) Offset() int {
	return q.Page * q.PageSize
}

// Page is one page of results.
type Page[T any] struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Items    []T   `json:"items"`
}

// MapPage converts the items of a page.
func MapPage[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	items := make([]U, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, fn(it))
	}
	return &Page[U]{Page: p.Page, PageSize: p.PageSize, Total: p.Total, Items: items}
}
