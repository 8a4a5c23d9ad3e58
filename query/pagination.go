package query

import "fmt"

// Pagination is a page window. Page is 1-indexed; PerPage 0 means no limit.
type Pagination struct {
	Page    int
	PerPage int
}

// NewPagination validates and returns a page window.
func NewPagination(page, perPage int) (Pagination, error) {
	p := Pagination{Page: page, PerPage: perPage}
	if err := p.Validate(); err != nil {
		return Pagination{}, err
	}
	return p.Normalize(), nil
}

// Normalize maps the zero page to the first page.
func (p Pagination) Normalize() Pagination {
	if p.Page == 0 {
		p.Page = 1
	}
	return p
}

func (p Pagination) Validate() error {
	if p.Page < 0 {
		return fmt.Errorf("invalid pagination: page %d must be >= 1", p.Page)
	}
	if p.PerPage < 0 {
		return fmt.Errorf("invalid pagination: per page %d must be >= 0", p.PerPage)
	}
	return nil
}

// Limited reports whether the window restricts the number of rows.
func (p Pagination) Limited() bool {
	return p.PerPage > 0
}

func (p Pagination) Limit() int {
	return p.PerPage
}

// Offset is (page-1)*perPage.
func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PerPage
}
