package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks stored bodies found by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_api_store_hits_total",
			Help: "Total number of revalidation store hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks lookups without a stored body
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_api_store_misses_total",
			Help: "Total number of revalidation store misses",
		},
	)

	// CacheSize tracks bytes written to the store by layer
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_api_store_size_bytes",
			Help: "Bytes written to the revalidation store",
		},
		[]string{"layer"},
	)

	// ConditionalRequestsSent tracks requests carrying If-None-Match/If-Modified-Since
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_api_conditional_requests_total",
			Help: "Total number of conditional requests sent to the catalog API",
		},
	)

	// NotModifiedResponses tracks 304 Not Modified responses
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_api_304_responses_total",
			Help: "Total number of catalog API 304 Not Modified responses",
		},
	)

	// CacheErrors tracks store operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_api_store_errors_total",
			Help: "Total number of revalidation store errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "touch"
	)
)
