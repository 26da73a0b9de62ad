package storefront

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pageViewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_page_views_total",
		Help: "Rendered storefront pages by page and final state",
	}, []string{"page", "state"})

	pageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_page_duration_seconds",
		Help:    "Time to load and render a storefront page",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"page"})
)
