package storefront

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/Sternrassler/catalog-storefront/pkg/catalog"
	"github.com/Sternrassler/catalog-storefront/pkg/pagination"
	"github.com/Sternrassler/catalog-storefront/pkg/resource"
)

// Pager is the previous/next control of a paginated page.
type Pager struct {
	Page    int
	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string

	// Disabled is set while a page change is loading.
	Disabled bool
}

// PrevEnabled reports whether the previous link is active.
func (p Pager) PrevEnabled() bool {
	return p.HasPrev && !p.Disabled
}

// NextEnabled reports whether the next link is active.
func (p Pager) NextEnabled() bool {
	return p.HasNext && !p.Disabled
}

func newPager(base string, cursor pagination.Cursor, info pagination.PageInfo, disabled bool) Pager {
	p := Pager{
		Page:     cursor.Page,
		HasPrev:  info.HasPrev(),
		HasNext:  info.HasNext(),
		Disabled: disabled,
	}
	if p.HasPrev {
		p.PrevURL = pageURL(base, cursor.Prev().Page)
	}
	if p.HasNext {
		p.NextURL = pageURL(base, cursor.Next().Page)
	}
	return p
}

// pageURL links to page n of base. Page 1 is the bare path.
func pageURL(base string, page int) string {
	if page <= 1 {
		return base
	}
	return base + "?" + url.Values{"page": {strconv.Itoa(page)}}.Encode()
}

// ProductListView renders "/".
type ProductListView struct {
	State    resource.State
	Loading  bool
	Error    string
	Err      error
	Products []catalog.Product
	Pager    Pager
	RetryURL string
}

// ProductDetailView renders "/product/{id}".
type ProductDetailView struct {
	State   resource.State
	Loading bool
	Error   string
	Err     error
	Product *catalog.Product
	BackURL string
}

// DepartmentsListView renders "/departments".
type DepartmentsListView struct {
	State       resource.State
	Loading     bool
	Error       string
	Err         error
	Departments []catalog.Department
	RetryURL    string
}

// DepartmentView renders "/departments/{id}".
type DepartmentView struct {
	State           resource.State
	FullPageSpinner bool
	InlineLoading   bool
	Error           string
	Err             error
	Department      *catalog.Department
	CountLabel      string
	Products        []catalog.Product
	Empty           bool
	ShowPager       bool
	Pager           Pager
	RetryURL        string
	BackURL         string
}

// errorStatus maps a failed load to the response status: upstream 404
// stays 404, every other failure is a bad gateway.
func errorStatus(err error) int {
	if catalog.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}
