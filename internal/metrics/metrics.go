// Package metrics exposes Prometheus collectors for the quote service.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the service collectors. A private registry keeps tests
	// free of the global default registerer.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "marketquotes",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketquotes",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketquotes",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	upstreamFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketquotes",
			Subsystem: "upstream",
			Name:      "fetches_total",
			Help:      "Batched upstream fetches by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketquotes",
			Subsystem: "upstream",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of batched upstream fetches.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"source"},
	)

	symbolsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketquotes",
			Subsystem: "quotes",
			Name:      "skipped_total",
			Help:      "Symbols omitted from a response, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		upstreamFetches,
		upstreamDuration,
		symbolsSkipped,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
// Compression is left to the server's gzip middleware.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{DisableCompression: true})
}

// InstrumentHandler wraps next with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		method := strings.ToUpper(r.Method)
		path := pathLabel(r.URL.Path)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordUpstreamFetch records one batched upstream call.
func RecordUpstreamFetch(source string, duration time.Duration, err error) {
	if source == "" {
		source = "unknown"
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamFetches.WithLabelValues(source, outcome).Inc()
	upstreamDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordSkipped counts a symbol left out of a response.
func RecordSkipped(reason string) {
	symbolsSkipped.WithLabelValues(reason).Inc()
}

// knownPaths bounds the path label cardinality.
var knownPaths = map[string]struct{}{
	"/api/market_data": {},
	"/healthz":         {},
}

func pathLabel(p string) string {
	if _, ok := knownPaths[p]; ok {
		return p
	}
	return "other"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
