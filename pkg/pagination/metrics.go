package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voog_pagination_fetches_total",
		Help: "Page fetches issued by pagination controllers by result",
	}, []string{"result"}) // "done", "fail"

	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voog_pagination_dropped_total",
		Help: "Page requests that did not start a fetch by reason",
	}, []string{"reason"}) // "busy", "reload", "destroyed"

	batchPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voog_batch_pages_fetched_total",
		Help: "Pages fetched by batch walks by result",
	}, []string{"result"}) // "ok", "error"

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voog_batch_duration_seconds",
		Help:    "Duration of complete batch walks",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)
