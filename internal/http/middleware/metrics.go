// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation. Metrics() measures request
// counts, latencies, in-flight concurrency, and response sizes keyed by the
// registered route to keep label cardinality bounded. The AI-specific
// collectors (cache outcomes, push deliveries) are incremented by handlers.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is omitted to keep histogram cardinality low.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of in-flight requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// httpRespSize captures response sizes in bytes by method and route path.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 2 << 10, 5 << 10,
				10 << 10, 25 << 10, 50 << 10,
				100 << 10, 250 << 10, 500 << 10,
			},
		},
		[]string{"method", "path"},
	)

	// aiCacheOutcomes counts AI response cache lookups by feature and outcome.
	aiCacheOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_cache_lookups_total",
			Help: "AI response cache lookups by feature and outcome (hit/miss).",
		},
		[]string{"feature", "outcome"},
	)

	// pushDeliveries counts push notification sends by kind and outcome.
	pushDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Push notification deliveries by kind and outcome (delivered/failed).",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, aiCacheOutcomes, pushDeliveries)
}

// ObserveCacheOutcome records one AI cache lookup result for a feature.
func ObserveCacheOutcome(feature string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	aiCacheOutcomes.WithLabelValues(feature, outcome).Inc()
}

// ObservePushDeliveries records delivered/failed counts for one dispatch.
func ObservePushDeliveries(kind string, delivered, failed int) {
	if delivered > 0 {
		pushDeliveries.WithLabelValues(kind, "delivered").Add(float64(delivered))
	}
	if failed > 0 {
		pushDeliveries.WithLabelValues(kind, "failed").Add(float64(failed))
	}
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
//
// The "path" label uses the registered route (c.FullPath()) to avoid
// unbounded cardinality from raw URLs, falling back to the raw path on 404.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		dur := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())
		size := c.Writer.Size() // -1 when unknown

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(dur)
		if size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
