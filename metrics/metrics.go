package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the diesel log
type Metrics struct {
	// Entry metrics
	EntriesSubmittedTotal *prometheus.CounterVec

	// Feed metrics
	FeedRefreshesTotal *prometheus.CounterVec
	FeedEntries        prometheus.Gauge
	StreamClients      prometheus.Gauge

	// Export metrics
	ExportsTotal *prometheus.CounterVec

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EntriesSubmittedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diesel_log_entries_submitted_total",
				Help: "Total number of fuel log submissions by outcome",
			},
			[]string{"status"},
		),

		FeedRefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diesel_log_feed_refreshes_total",
				Help: "Total number of recent entry reloads by outcome",
			},
			[]string{"status"},
		),

		FeedEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "diesel_log_feed_entries",
				Help: "Number of entries in the recent entries snapshot",
			},
		),

		StreamClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "diesel_log_stream_clients",
				Help: "Number of connected live update streams",
			},
		),

		ExportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diesel_log_exports_total",
				Help: "Total number of exports by format and outcome",
			},
			[]string{"format", "status"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diesel_log_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "diesel_log_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware records HTTP request metrics per chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		m.RecordHTTPRequest(r.Method, routePattern(r), strconv.Itoa(wrapper.statusCode), time.Since(start))
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Flush keeps streaming responses working through the wrapper
func (w *responseWriterWrapper) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController
func (w *responseWriterWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// routePattern returns the matched route template so labels stay bounded
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return "unmatched"
}
