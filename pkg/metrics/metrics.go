// Package metrics provides the Prometheus registry used across the storefront.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, storefront) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the storefront.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry the /metrics endpoint serves.
var Gatherer = prometheus.DefaultGatherer

// Metrics Documentation
//
// Catalog API request metrics (pkg/client):
//   - catalog_api_requests_total{endpoint, status} (Counter): requests by endpoint template and outcome
//   - catalog_api_request_duration_seconds{endpoint} (Histogram): request duration by endpoint template
//   - catalog_api_errors_total{class} (Counter): errors by class (client, server, rate_limit, network)
//   - catalog_api_retries_total{error_class} (Counter): retry attempts (only when retries are enabled)
//   - catalog_api_retry_backoff_seconds{error_class} (Histogram): backoff duration by error class
//   - catalog_api_retry_exhausted_total{error_class} (Counter): requests that exhausted max attempts
//
// Revalidation store metrics (pkg/cache):
//   - catalog_api_store_hits_total{layer="redis"} (Counter): stored bodies found
//   - catalog_api_store_misses_total (Counter): no stored body
//   - catalog_api_store_size_bytes{layer="redis"} (Gauge): bytes written to the store
//   - catalog_api_conditional_requests_total (Counter): requests sent with If-None-Match/If-Modified-Since
//   - catalog_api_304_responses_total (Counter): 304 Not Modified answers
//   - catalog_api_store_errors_total{operation} (Counter): store operation errors
//
// Upstream rate limit metrics (pkg/ratelimit):
//   - catalog_api_rate_limit_remaining (Gauge): last X-RateLimit-Remaining seen
//   - catalog_api_rate_limit_blocks_total (Counter): requests refused locally while exhausted
//
// Storefront metrics (internal/storefront):
//   - storefront_page_views_total{page, state} (Counter): rendered pages by view state
//   - storefront_page_duration_seconds{page} (Histogram): time to load and render a page
//
// Example Prometheus Queries:
//
//   # Share of page views that rendered the error view
//   sum(rate(storefront_page_views_total{state="error"}[5m])) /
//   sum(rate(storefront_page_views_total[5m]))
//
//   # Revalidation savings
//   rate(catalog_api_304_responses_total[5m]) / rate(catalog_api_conditional_requests_total[5m])
//
//   # P95 upstream latency
//   histogram_quantile(0.95, rate(catalog_api_request_duration_seconds_bucket[5m]))
