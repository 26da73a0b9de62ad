// Package cache keeps the last successful catalog API body per request so
// the client can revalidate it with If-None-Match / If-Modified-Since.
//
// The store never answers on its own: every page view still reaches the
// catalog API, and a stored body is only used after the API replies
// 304 Not Modified. Entries carry a retention deadline after which Redis
// evicts them.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Origin:      "localhost:3000",
//		Endpoint:    "/api/products",
//		QueryParams: url.Values{"page": {"2"}, "per_page": {"15"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if err == nil && cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// On a 200 response, cache.ResponseToEntry + manager.Set store the body;
// on a 304, cache.EntryToResponse rebuilds the response from the entry.
package cache

import (
	"net/http"
	"time"
)

// CacheEntry represents a stored catalog API response.
type CacheEntry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match)
	ETag string `json:"etag"`

	// Expires is when the entry is evicted from the store
	Expires time.Time `json:"expires"`

	// LastModified is when the data was last modified (from the Last-Modified header)
	LastModified time.Time `json:"last_modified"`

	// StatusCode is the HTTP status code of the stored response
	StatusCode int `json:"status_code"`

	// Headers are the response headers
	Headers http.Header `json:"headers"`

	// CachedAt is when we stored this response
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the entry is past its retention deadline.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until eviction.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
