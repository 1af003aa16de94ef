// Package observability exposes the Prometheus registry and the collectors
// shared by the web process and the worker.
package observability

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	notifications   *prometheus.CounterVec
	dropped         *prometheus.CounterVec
	workspaces      prometheus.Gauge
}

// NewMetrics initialises the registry and the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentaldesk_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentaldesk_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	backendCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentaldesk_backend_requests_total",
		Help: "Backend API calls by resource, method and status. Status 0 is a transport failure.",
	}, []string{"resource", "method", "code"})
	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentaldesk_backend_request_duration_seconds",
		Help:    "Backend API call duration per resource.",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentaldesk_notifications_published_total",
		Help: "Notifications published on the dashboard bus by kind.",
	}, []string{"kind"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentaldesk_notifications_dropped_total",
		Help: "Notifications lost to full subscriber buffers by kind.",
	}, []string{"kind"})
	workspaces := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rentaldesk_workspaces",
		Help: "Dashboard workspaces currently held in memory.",
	})
	registry.MustRegister(
		requests, duration,
		backendCalls, backendDuration,
		notifications, dropped,
		workspaces,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		backendCalls:    backendCalls,
		backendDuration: backendDuration,
		notifications:   notifications,
		dropped:         dropped,
		workspaces:      workspaces,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveBackend implements backend.Observer.
func (m *Metrics) ObserveBackend(resource, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.backendCalls.WithLabelValues(resource, method, strconv.Itoa(status)).Inc()
	m.backendDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// NotificationPublished implements events.Observer.
func (m *Metrics) NotificationPublished(kind string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind).Inc()
}

// NotificationDropped implements events.Observer.
func (m *Metrics) NotificationDropped(kind string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(kind).Inc()
}

// SetWorkspaces reports the current workspace count.
func (m *Metrics) SetWorkspaces(n int) {
	if m == nil {
		return
	}
	m.workspaces.Set(float64(n))
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps event streams working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("observability: hijack not supported")
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
