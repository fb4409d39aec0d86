package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer ("redis", "memory")
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voog_cache_hits_total",
			Help: "Total number of page cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voog_cache_misses_total",
			Help: "Total number of page cache misses",
		},
		[]string{"layer"},
	)

	// CacheSize tracks bytes held by in-memory stores. Redis reports its
	// own memory and expires keys without telling us.
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "voog_cache_size_bytes",
			Help: "Bytes of page data held by in-memory stores",
		},
		[]string{"layer"},
	)

	// CacheBytesWritten tracks bytes stored by layer
	CacheBytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voog_cache_written_bytes_total",
			Help: "Total bytes written to the page cache",
		},
		[]string{"layer"},
	)

	// ConditionalRequestsSent tracks revalidation requests with If-None-Match/If-Modified-Since
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voog_conditional_requests_total",
			Help: "Total number of conditional requests sent",
		},
	)

	// NotModifiedResponses tracks 304 Not Modified revalidations
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voog_304_responses_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voog_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
