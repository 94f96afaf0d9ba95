// Package metrics declares the Prometheus instruments used across SoundBoxd.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedStageItems counts reviews contributed by each feed stage.
	FeedStageItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundboxd_feed_stage_items_total",
			Help: "Reviews contributed to feed pages, by stage",
		},
		[]string{"stage"},
	)

	// FeedStageFailures counts stages that degraded to zero items because the store failed.
	FeedStageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundboxd_feed_stage_failures_total",
			Help: "Feed stages that failed and contributed nothing",
		},
		[]string{"stage"},
	)

	// FeedPages counts composed feed pages, labelled by whether they were short.
	FeedPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundboxd_feed_pages_total",
			Help: "Composed feed pages",
		},
		[]string{"full"},
	)

	// MatchOutcomes counts matcher results by outcome (matched, unmatched).
	MatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundboxd_match_outcomes_total",
			Help: "Catalog matcher results by outcome",
		},
		[]string{"outcome"},
	)

	// CatalogRequestDuration observes catalog API latency.
	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soundboxd_catalog_request_duration_seconds",
			Help:    "Catalog API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	// CatalogCacheHits counts catalog responses served from memory.
	CatalogCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "soundboxd_catalog_cache_hits_total",
			Help: "Catalog responses served from the in-memory cache",
		},
	)

	// HTTPRequests counts API requests by route pattern, method and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundboxd_http_requests_total",
			Help: "HTTP requests handled",
		},
		[]string{"route", "method", "status"},
	)
)
