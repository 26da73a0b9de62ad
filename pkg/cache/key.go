package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CacheKey represents a unique identifier for a stored catalog API response.
type CacheKey struct {
	// Origin is the API host, so several catalog APIs can share one Redis
	Origin string

	// Endpoint is the request path (e.g., "/api/departments/5/products")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"page": "2"})
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: catalog:origin:endpoint:query1=val1:query2=val2
//
// Example:
//
//	catalog:localhost:3000:api/products:page=2:per_page=15
func (k CacheKey) String() string {
	parts := []string{"catalog"}

	if k.Origin != "" {
		parts = append(parts, k.Origin)
	}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
