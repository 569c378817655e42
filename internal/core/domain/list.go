package domain

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// UserFilter selects a page of users, optionally narrowed by a search term
// matched against username, email and role name.
type UserFilter struct {
	Page     int
	PageSize int
	Search   string
}

// Normalize clamps the page to at least 1 and falls back to DefaultPageSize
// when the page size is outside [1, MaxPageSize].
func (f UserFilter) Normalize() UserFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > MaxPageSize {
		f.PageSize = DefaultPageSize
	}
	return f
}

func (f UserFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// UserPage is one page of the directory listing.
type UserPage struct {
	Users      []User
	Page       int
	PageSize   int
	TotalCount int
}

func (p UserPage) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

func (p UserPage) HasNextPage() bool {
	return p.Page < p.TotalPages()
}

func (p UserPage) HasPreviousPage() bool {
	return p.Page > 1
}
