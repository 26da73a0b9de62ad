package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

// DefaultPerPage is the page size every storefront list view requests.
const DefaultPerPage = 15

// Cursor is a 1-based position in a paginated collection.
type Cursor struct {
	Page    int
	PerPage int
}

// NewCursor returns a cursor at page with the default page size.
// Pages below 1 are clamped to 1.
func NewCursor(page int) Cursor {
	if page < 1 {
		page = 1
	}
	return Cursor{Page: page, PerPage: DefaultPerPage}
}

// ParseCursor reads a page number from a query parameter value.
// Anything that is not a positive integer yields page 1.
func ParseCursor(raw string) Cursor {
	page, err := strconv.Atoi(raw)
	if err != nil {
		return NewCursor(1)
	}
	return NewCursor(page)
}

// Next returns the cursor for the following page.
func (c Cursor) Next() Cursor {
	return Cursor{Page: c.Page + 1, PerPage: c.perPage()}
}

// Prev returns the cursor for the preceding page, never below 1.
func (c Cursor) Prev() Cursor {
	page := c.Page - 1
	if page < 1 {
		page = 1
	}
	return Cursor{Page: page, PerPage: c.perPage()}
}

// IsFirst reports whether the cursor is on page 1.
func (c Cursor) IsFirst() bool {
	return c.Page <= 1
}

// Query encodes the cursor as catalog API query parameters.
func (c Cursor) Query() url.Values {
	page := c.Page
	if page < 1 {
		page = 1
	}
	return url.Values{
		"page":     []string{strconv.Itoa(page)},
		"per_page": []string{strconv.Itoa(c.perPage())},
	}
}

func (c Cursor) perPage() int {
	if c.PerPage < 1 {
		return DefaultPerPage
	}
	return c.PerPage
}

// PageInfo describes one fetched page.
type PageInfo struct {
	Cursor

	// Returned is the number of items the page contained.
	Returned int

	// TotalPages is the authoritative page count, 0 when the API did not send one.
	TotalPages int
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool {
	return !p.IsFirst()
}

// HasNext reports whether a following page may exist. An authoritative total
// wins; otherwise a page shorter than the page size marks the end.
func (p PageInfo) HasNext() bool {
	if p.TotalPages > 0 {
		return p.Page < p.TotalPages
	}
	return p.Returned >= p.perPage()
}

// TotalPagesFromHeader extracts the page count from X-Total-Pages or X-Pages.
// Returns 0 when neither header carries a positive integer.
func TotalPagesFromHeader(h http.Header) int {
	for _, name := range []string{"X-Total-Pages", "X-Pages"} {
		v := h.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			return n
		}
	}
	return 0
}
