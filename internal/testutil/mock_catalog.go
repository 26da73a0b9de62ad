// Package testutil provides testing utilities for the catalog storefront.
package testutil

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCatalog is a configurable in-memory catalog API for tests.
// By default it serves the four catalog endpoints from its fixtures with
// ETag support; SetResponse/SetHandler override individual paths.
type MockCatalog struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	products    []map[string]any
	departments []map[string]any

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
	LastQuery         url.Values
	Paths             []string
}

// NewMockCatalog creates a new mock catalog API server.
func NewMockCatalog() *MockCatalog {
	mock := &MockCatalog{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastQuery = r.URL.Query()
		mock.Paths = append(mock.Paths, r.URL.RequestURI())

		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.LastQuery = nil
	m.Paths = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCatalog) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockCatalog) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// AddProducts appends n generated products to the fixtures, all in departmentID.
// IDs continue from the current fixture count.
func (m *MockCatalog) AddProducts(n int, departmentID int64, departmentName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		id := len(m.products) + 1
		m.products = append(m.products, map[string]any{
			"id":              id,
			"name":            fmt.Sprintf("Product %d", id),
			"description":     fmt.Sprintf("Description of product %d", id),
			"retail_price":    float64(id) + 0.99,
			"cost":            float64(id) / 2,
			"brand":           "Acme",
			"category":        "Tops & Tees",
			"department_id":   departmentID,
			"department_name": departmentName,
			"sku":             fmt.Sprintf("SKU-%05d", id),
		})
	}
}

// AddDepartment appends a department fixture.
func (m *MockCatalog) AddDepartment(id int64, name string, productCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.departments = append(m.departments, map[string]any{
		"id":            id,
		"name":          name,
		"product_count": productCount,
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockCatalog) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetLastQuery returns the query of the most recent request.
func (m *MockCatalog) GetLastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockCatalog) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

// LastPath returns the request URI of the most recent request.
func (m *MockCatalog) LastPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.Paths) == 0 {
		return ""
	}
	return m.Paths[len(m.Paths)-1]
}

// defaultHandler routes the catalog endpoints onto the fixtures.
func (m *MockCatalog) defaultHandler(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 2 && parts[0] == "api" && parts[1] == "products":
		page, perPage, ok := pageParams(r.URL.Query(), 20)
		if !ok {
			writeJSON(w, r, http.StatusBadRequest, map[string]string{
				"error": "Invalid page or per_page parameters. Must be positive integers.",
			})
			return
		}
		m.mu.RLock()
		items := slicePage(m.products, page, perPage)
		m.mu.RUnlock()
		writeJSON(w, r, http.StatusOK, items)

	case len(parts) == 3 && parts[0] == "api" && parts[1] == "products":
		product, ok := m.findProduct(parts[2])
		if !ok {
			writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "Product not found"})
			return
		}
		writeJSON(w, r, http.StatusOK, product)

	case len(parts) == 2 && parts[0] == "api" && parts[1] == "departments":
		m.mu.RLock()
		departments := append([]map[string]any{}, m.departments...)
		m.mu.RUnlock()
		writeJSON(w, r, http.StatusOK, map[string]any{"departments": departments})

	case len(parts) == 4 && parts[0] == "api" && parts[1] == "departments" && parts[3] == "products":
		department, ok := m.findDepartment(parts[2])
		if !ok {
			writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "Department not found"})
			return
		}
		page, perPage, ok := pageParams(r.URL.Query(), 20)
		if !ok {
			writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "Invalid page or per_page parameters."})
			return
		}
		m.mu.RLock()
		var inDepartment []map[string]any
		for _, p := range m.products {
			if fmt.Sprint(p["department_id"]) == fmt.Sprint(department["id"]) {
				inDepartment = append(inDepartment, p)
			}
		}
		m.mu.RUnlock()
		writeJSON(w, r, http.StatusOK, map[string]any{
			"department": department,
			"products":   slicePage(inDepartment, page, perPage),
		})

	default:
		writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "Not found"})
	}
}

func (m *MockCatalog) findProduct(id string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.products {
		if fmt.Sprint(p["id"]) == id {
			return p, true
		}
	}
	return nil, false
}

func (m *MockCatalog) findDepartment(id string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.departments {
		if fmt.Sprint(d["id"]) == id {
			return d, true
		}
	}
	return nil, false
}

func pageParams(q url.Values, defaultPerPage int) (int, int, bool) {
	page, perPage := 1, defaultPerPage
	var err error
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			return 0, 0, false
		}
	}
	if v := q.Get("per_page"); v != "" {
		if perPage, err = strconv.Atoi(v); err != nil {
			return 0, 0, false
		}
	}
	if page < 1 || perPage < 1 {
		return 0, 0, false
	}
	return page, perPage, true
}

func slicePage(items []map[string]any, page, perPage int) []map[string]any {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []map[string]any{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// writeJSON writes v with an ETag and honours If-None-Match.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")

	if status == http.StatusOK {
		sum := sha1.Sum(body)
		etag := `"` + hex.EncodeToString(sum[:8]) + `"`
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.WriteHeader(status)
	w.Write(body)
}

// NewJSONResponse creates a 200 OK response with a JSON body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"ETag":         `"test-etag-123"`,
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "Product not found"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Could not connect to the database."}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response with
// exhausted rate limit headers.
func NewRateLimitResponse(resetSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type":          "application/json",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     strconv.Itoa(resetSeconds),
		},
	}
}

// NewConditionalHandler creates a handler that answers 304 when the request
// carries etag in If-None-Match, and data otherwise.
func NewConditionalHandler(etag string, data string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	}
}
