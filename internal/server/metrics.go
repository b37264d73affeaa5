package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed at /metrics.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	SweepsTotal        prometheus.Counter
	ChecksTotal        prometheus.Counter
	CheckErrorsTotal   prometheus.Counter
	NotificationsTotal *prometheus.CounterVec
	ActiveRequests     prometheus.Gauge
}

// NewMetrics creates and registers the service's collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farewatch",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path, and status.",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "farewatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		SweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farewatch",
			Name:      "sweeps_total",
			Help:      "Completed monitoring sweeps.",
		}),
		ChecksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farewatch",
			Name:      "price_checks_total",
			Help:      "Individual price checks performed.",
		}),
		CheckErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farewatch",
			Name:      "price_check_errors_total",
			Help:      "Price checks that failed.",
		}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farewatch",
			Name:      "notifications_total",
			Help:      "Notifications delivered by trigger.",
		}, []string{"trigger"}),
		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "farewatch",
			Name:      "active_tracking_requests",
			Help:      "Tracking requests currently being monitored.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.SweepsTotal,
		m.ChecksTotal,
		m.CheckErrorsTotal,
		m.NotificationsTotal,
		m.ActiveRequests,
	)

	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware instruments requests with the counter and latency histogram.
// The metrics endpoint itself is not instrumented.
func (m *Metrics) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			path := r.URL.Path
			if pattern := r.Pattern; pattern != "" {
				path = pattern
			}

			m.RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			m.RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
