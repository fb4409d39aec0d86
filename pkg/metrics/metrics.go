// Package metrics exposes the Prometheus registry used by voog-pager.
// All metrics are defined in their respective packages (client, cache,
// pagination) to keep modularity and avoid circular dependencies.
//
// This package serves them and documents the catalogue.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by voog-pager.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - voog_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status ("cache", "network_error" included)
//   - voog_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - voog_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Cache Metrics (pkg/cache):
//   - voog_cache_hits_total{layer} (Counter): Cache hits by store ("redis", "memory")
//   - voog_cache_misses_total{layer} (Counter): Cache misses by store
//   - voog_cache_size_bytes{layer} (Gauge): Bytes held by in-memory stores
//   - voog_cache_written_bytes_total{layer} (Counter): Bytes written per store
//   - voog_conditional_requests_total (Counter): Conditional requests sent
//   - voog_304_responses_total (Counter): 304 Not Modified responses
//   - voog_cache_errors_total{operation} (Counter): Cache operation errors
//
// Pagination Metrics (pkg/pagination):
//   - voog_pagination_fetches_total{result} (Counter): Page fetches by result (done, fail)
//   - voog_pagination_dropped_total{reason} (Counter): Page requests not fetched (busy, reload, destroyed)
//   - voog_batch_pages_fetched_total{result} (Counter): Pages fetched by batch walks (ok, error)
//   - voog_batch_duration_seconds (Histogram): Duration of complete batch walks
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(voog_cache_hits_total[5m])) /
//   (sum(rate(voog_cache_hits_total[5m])) + sum(rate(voog_cache_misses_total[5m])))
//
//   # Dropped clicks while a fetch was in flight
//   rate(voog_pagination_dropped_total{reason="busy"}[5m])
//
//   # Request Error Rate
//   rate(voog_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(voog_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(voog_304_responses_total[5m]) / rate(voog_requests_total[5m])
