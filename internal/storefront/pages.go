package storefront

import (
	"context"
	"strconv"

	"github.com/Sternrassler/catalog-storefront/pkg/catalog"
	"github.com/Sternrassler/catalog-storefront/pkg/logging"
	"github.com/Sternrassler/catalog-storefront/pkg/pagination"
	"github.com/Sternrassler/catalog-storefront/pkg/resource"
)

// CatalogAPI is the subset of catalog operations the pages need.
// *catalog.API satisfies it.
type CatalogAPI interface {
	ListProducts(ctx context.Context, cursor pagination.Cursor) (catalog.ProductPage, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	ListDepartments(ctx context.Context) ([]catalog.Department, error)
	DepartmentProducts(ctx context.Context, id string, cursor pagination.Cursor) (catalog.DepartmentProducts, error)
}

// Page names, used in logs, metrics and template lookup.
const (
	PageProductList     = "product_list"
	PageProductDetail   = "product_detail"
	PageDepartmentsList = "departments_list"
	PageDepartment      = "department"
)

// traced logs every state transition of a page's query.
func traced[T any](page string) []resource.Option[T] {
	logger := logging.NewLogger("storefront").With().Str("page", page).Logger()
	return []resource.Option[T]{
		resource.WithLogger[T](logger),
		resource.WithObserver(func(s resource.Snapshot[T]) {
			logger.Debug().
				Str("state", s.State.String()).
				Uint64("generation", s.Generation).
				Msg("Page state changed")
		}),
	}
}

// ProductListPage shows one page of the product collection.
type ProductListPage struct {
	api    CatalogAPI
	cursor pagination.Cursor
	query  *resource.Query[catalog.ProductPage]
}

// NewProductListPage creates the page on page 1.
func NewProductListPage(api CatalogAPI) *ProductListPage {
	return &ProductListPage{
		api:    api,
		cursor: pagination.NewCursor(1),
		query:  resource.New[catalog.ProductPage](PageProductList, traced[catalog.ProductPage](PageProductList)...),
	}
}

// Mount loads the current page.
func (p *ProductListPage) Mount(ctx context.Context) {
	p.load(ctx)
}

// SetPage moves the cursor and loads. Pages below 1 become 1.
func (p *ProductListPage) SetPage(ctx context.Context, page int) {
	p.cursor = pagination.NewCursor(page)
	p.load(ctx)
}

// Next loads the following page when one exists.
func (p *ProductListPage) Next(ctx context.Context) {
	if p.View().Pager.HasNext {
		p.SetPage(ctx, p.cursor.Page+1)
	}
}

// Prev loads the preceding page when one exists.
func (p *ProductListPage) Prev(ctx context.Context) {
	if !p.cursor.IsFirst() {
		p.SetPage(ctx, p.cursor.Page-1)
	}
}

// Retry re-issues the last request.
func (p *ProductListPage) Retry(ctx context.Context) {
	p.query.Retry(ctx)
}

func (p *ProductListPage) load(ctx context.Context) {
	cursor := p.cursor
	p.query.Load(ctx, func(ctx context.Context) (catalog.ProductPage, error) {
		return p.api.ListProducts(ctx, cursor)
	})
}

// View returns the render model of the current state.
func (p *ProductListPage) View() ProductListView {
	snap := p.query.Snapshot()
	v := ProductListView{
		State:    snap.State,
		Loading:  snap.State == resource.Loading,
		Error:    snap.Message(),
		Err:      snap.Err,
		RetryURL: pageURL("/", p.cursor.Page),
	}
	if snap.State == resource.Ready {
		v.Products = snap.Data.Products
		v.Pager = newPager("/", p.cursor, snap.Data.Info, false)
	}
	return v
}

// ProductDetailPage shows a single product.
type ProductDetailPage struct {
	api   CatalogAPI
	id    string
	query *resource.Query[catalog.Product]
}

// NewProductDetailPage creates the page for product id.
func NewProductDetailPage(api CatalogAPI, id string) *ProductDetailPage {
	return &ProductDetailPage{
		api:   api,
		id:    id,
		query: resource.New[catalog.Product](PageProductDetail, traced[catalog.Product](PageProductDetail)...),
	}
}

// Mount loads the product.
func (p *ProductDetailPage) Mount(ctx context.Context) {
	p.load(ctx)
}

// SetID switches to another product and loads it. The same id is not
// fetched again once loaded.
func (p *ProductDetailPage) SetID(ctx context.Context, id string) {
	if id == p.id && p.query.Snapshot().State != resource.Idle {
		return
	}
	p.id = id
	p.load(ctx)
}

func (p *ProductDetailPage) load(ctx context.Context) {
	id := p.id
	p.query.Load(ctx, func(ctx context.Context) (catalog.Product, error) {
		return p.api.GetProduct(ctx, id)
	})
}

// View returns the render model. backURL is where "Go Back" leads.
func (p *ProductDetailPage) View(backURL string) ProductDetailView {
	snap := p.query.Snapshot()
	v := ProductDetailView{
		State:   snap.State,
		Loading: snap.State == resource.Loading,
		Error:   snap.Message(),
		Err:     snap.Err,
		BackURL: backURL,
	}
	if snap.State == resource.Ready {
		product := snap.Data
		v.Product = &product
	}
	return v
}

// DepartmentsListPage shows every department.
type DepartmentsListPage struct {
	api   CatalogAPI
	query *resource.Query[[]catalog.Department]
}

// NewDepartmentsListPage creates the page.
func NewDepartmentsListPage(api CatalogAPI) *DepartmentsListPage {
	return &DepartmentsListPage{
		api:   api,
		query: resource.New[[]catalog.Department](PageDepartmentsList, traced[[]catalog.Department](PageDepartmentsList)...),
	}
}

// Mount loads the department list.
func (p *DepartmentsListPage) Mount(ctx context.Context) {
	p.query.Load(ctx, p.api.ListDepartments)
}

// Retry re-issues the request.
func (p *DepartmentsListPage) Retry(ctx context.Context) {
	p.query.Retry(ctx)
}

// View returns the render model of the current state.
func (p *DepartmentsListPage) View() DepartmentsListView {
	snap := p.query.Snapshot()
	v := DepartmentsListView{
		State:    snap.State,
		Loading:  snap.State == resource.Loading,
		Error:    snap.Message(),
		Err:      snap.Err,
		RetryURL: "/departments",
	}
	if snap.State == resource.Ready {
		v.Departments = snap.Data
	}
	return v
}

// DepartmentPage shows a department and one page of its products.
type DepartmentPage struct {
	api    CatalogAPI
	id     string
	cursor pagination.Cursor
	query  *resource.Query[catalog.DepartmentProducts]
}

// NewDepartmentPage creates the page for department id on page 1.
func NewDepartmentPage(api CatalogAPI, id string) *DepartmentPage {
	return &DepartmentPage{
		api:    api,
		id:     id,
		cursor: pagination.NewCursor(1),
		query:  resource.New[catalog.DepartmentProducts](PageDepartment, traced[catalog.DepartmentProducts](PageDepartment)...),
	}
}

// Mount loads the current page.
func (p *DepartmentPage) Mount(ctx context.Context) {
	p.load(ctx)
}

// SetPage moves the cursor and loads. Pages below 1 become 1.
func (p *DepartmentPage) SetPage(ctx context.Context, page int) {
	p.cursor = pagination.NewCursor(page)
	p.load(ctx)
}

// SetID switches department, resetting the cursor to page 1.
func (p *DepartmentPage) SetID(ctx context.Context, id string) {
	p.id = id
	p.SetPage(ctx, 1)
}

// Next loads the following page when one exists.
func (p *DepartmentPage) Next(ctx context.Context) {
	if v := p.View(); v.ShowPager && v.Pager.HasNext && !v.Pager.Disabled {
		p.SetPage(ctx, p.cursor.Page+1)
	}
}

// Prev loads the preceding page when one exists.
func (p *DepartmentPage) Prev(ctx context.Context) {
	if !p.cursor.IsFirst() && !p.View().Pager.Disabled {
		p.SetPage(ctx, p.cursor.Page-1)
	}
}

// Retry re-issues the last request.
func (p *DepartmentPage) Retry(ctx context.Context) {
	p.query.Retry(ctx)
}

func (p *DepartmentPage) load(ctx context.Context) {
	id, cursor := p.id, p.cursor
	p.query.Load(ctx, func(ctx context.Context) (catalog.DepartmentProducts, error) {
		return p.api.DepartmentProducts(ctx, id, cursor)
	})
}

func (p *DepartmentPage) basePath() string {
	return "/departments/" + p.id
}

// View returns the render model of the current state.
//
// Until a load has completed, loading is shown as a full-page spinner.
// A page change keeps the previous department and products on screen with
// an inline indicator and disabled pagination.
func (p *DepartmentPage) View() DepartmentView {
	snap := p.query.Snapshot()
	v := DepartmentView{
		State:    snap.State,
		Error:    snap.Message(),
		Err:      snap.Err,
		RetryURL: pageURL(p.basePath(), p.cursor.Page),
		BackURL:  "/departments",
	}

	switch {
	case snap.State == resource.Loading && !snap.Loaded:
		v.FullPageSpinner = true
		return v
	case snap.State == resource.Error || snap.State == resource.Idle:
		return v
	}

	loading := snap.State == resource.Loading
	data := snap.Data

	v.InlineLoading = loading
	v.Department = &data.Department
	v.CountLabel = strconv.Itoa(data.Department.ProductCount) + " Products Found"
	v.Products = data.Products
	v.Empty = len(data.Products) == 0
	// An empty page past the first keeps the pager so Previous stays reachable.
	v.ShowPager = !v.Empty || !data.Info.Cursor.IsFirst()

	// While loading, Info still describes the previous page.
	v.Pager = newPager(p.basePath(), data.Info.Cursor, data.Info, loading)
	return v
}
