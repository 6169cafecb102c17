// Package telemetry exposes Prometheus metrics for the sync pipeline and the
// HTTP surface.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SyncPasses counts synchronization passes by outcome ("completed", "failed").
	SyncPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchdash_sync_passes_total",
		Help: "Number of synchronization passes by outcome.",
	}, []string{"outcome"})

	// LaunchesProcessed counts launches persisted across all passes.
	LaunchesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "launchdash_sync_launches_processed_total",
		Help: "Number of launch records successfully persisted.",
	})

	// PlaceholdersCreated counts placeholder entities by kind ("rocket", "launchpad").
	PlaceholdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchdash_placeholders_created_total",
		Help: "Number of placeholder entities synthesized for unreachable references.",
	}, []string{"kind"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "launchdash_http_request_duration_seconds",
		Help:    "HTTP request duration by method and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request durations for every handled request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		httpDuration.
			WithLabelValues(r.Method, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
