package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Sternrassler/catalog-storefront/pkg/logging"
	"github.com/Sternrassler/catalog-storefront/pkg/pagination"
	"github.com/rs/zerolog"
)

// Getter performs GET requests against the catalog API origin.
// *client.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error)
}

// API exposes the catalog read operations.
type API struct {
	getter Getter
	logger zerolog.Logger
}

// NewAPI creates a catalog API on top of getter.
func NewAPI(getter Getter) *API {
	return &API{
		getter: getter,
		logger: logging.NewLogger("catalog"),
	}
}

// ListProducts fetches one page of products:
// GET /api/products?page={n}&per_page={size}
func (a *API) ListProducts(ctx context.Context, cursor pagination.Cursor) (ProductPage, error) {
	var products []Product
	header, err := a.getJSON(ctx, "products", "/api/products", cursor.Query(), &products)
	if err != nil {
		return ProductPage{}, err
	}
	if products == nil {
		products = []Product{}
	}

	return ProductPage{
		Products: products,
		Info: pagination.PageInfo{
			Cursor:     normalize(cursor),
			Returned:   len(products),
			TotalPages: pagination.TotalPagesFromHeader(header),
		},
	}, nil
}

// GetProduct fetches a single product: GET /api/products/{id}
func (a *API) GetProduct(ctx context.Context, id string) (Product, error) {
	var product Product
	if _, err := a.getJSON(ctx, "product", "/api/products/"+url.PathEscape(id), nil, &product); err != nil {
		return Product{}, err
	}
	return product, nil
}

// ListDepartments fetches every department: GET /api/departments
// A response without a usable "departments" array yields an empty list.
func (a *API) ListDepartments(ctx context.Context) ([]Department, error) {
	body, _, err := a.get(ctx, "departments", "/api/departments", nil)
	if err != nil {
		return nil, err
	}

	departments, err := decodeDepartments(body)
	if err != nil {
		return nil, &FetchError{Resource: "departments", Err: fmt.Errorf("decode response: %w", err)}
	}
	return departments, nil
}

// DepartmentProducts fetches a department and one page of its products in a
// single round trip: GET /api/departments/{id}/products?page={n}&per_page={size}
func (a *API) DepartmentProducts(ctx context.Context, id string, cursor pagination.Cursor) (DepartmentProducts, error) {
	var result DepartmentProducts
	endpoint := "/api/departments/" + url.PathEscape(id) + "/products"
	header, err := a.getJSON(ctx, "data", endpoint, cursor.Query(), &result)
	if err != nil {
		return DepartmentProducts{}, err
	}
	if result.Products == nil {
		result.Products = []Product{}
	}

	result.Info = pagination.PageInfo{
		Cursor:     normalize(cursor),
		Returned:   len(result.Products),
		TotalPages: pagination.TotalPagesFromHeader(header),
	}
	return result, nil
}

// getJSON performs a GET and decodes a successful body into out.
func (a *API) getJSON(ctx context.Context, resource, endpoint string, query url.Values, out any) (http.Header, error) {
	body, header, err := a.get(ctx, resource, endpoint, query)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(body, out); err != nil {
		a.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Malformed catalog response")
		return nil, &FetchError{Resource: resource, Err: fmt.Errorf("decode response: %w", err)}
	}
	return header, nil
}

// get performs a GET and returns the body of a 2xx response.
// Every other outcome becomes a *FetchError.
func (a *API) get(ctx context.Context, resource, endpoint string, query url.Values) ([]byte, http.Header, error) {
	resp, err := a.getter.Get(ctx, endpoint, query)
	if err != nil {
		return nil, nil, &FetchError{Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		a.logger.Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Catalog request failed")
		return nil, nil, &FetchError{Resource: resource, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &FetchError{Resource: resource, Err: fmt.Errorf("read response body: %w", err)}
	}
	return body, resp.Header, nil
}

func normalize(c pagination.Cursor) pagination.Cursor {
	n := pagination.NewCursor(c.Page)
	if c.PerPage > 0 {
		n.PerPage = c.PerPage
	}
	return n
}

// ProductPager adapts the API to pagination.PageFetcher for walking the
// whole product collection.
type ProductPager struct {
	API *API
}

// FetchPage implements pagination.PageFetcher.
func (p ProductPager) FetchPage(ctx context.Context, cursor pagination.Cursor) ([]Product, pagination.PageInfo, error) {
	page, err := p.API.ListProducts(ctx, cursor)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}
	return page.Products, page.Info, nil
}
