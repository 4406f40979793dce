package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	stockCommits    *prometheus.CounterVec
	triageRuns      prometheus.Counter
	triageMoves     *prometheus.CounterVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmadesk_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pharmadesk_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	stockCommits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmadesk_stock_commits_total",
		Help: "Stock commits by source (direct, putaway, adjustment).",
	}, []string{"source"})
	triageRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pharmadesk_order_triage_runs_total",
		Help: "Completed order triage sweeps.",
	})
	triageMoves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmadesk_order_triage_transitions_total",
		Help: "Order status transitions applied by triage.",
	}, []string{"to"})
	registry.MustRegister(requests, duration, stockCommits, triageRuns, triageMoves)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		stockCommits:    stockCommits,
		triageRuns:      triageRuns,
		triageMoves:     triageMoves,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for each HTTP request.
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

// ObserveStockCommit counts a committed stock mutation.
func (m *Metrics) ObserveStockCommit(source string) {
	if m == nil {
		return
	}
	m.stockCommits.WithLabelValues(source).Inc()
}

// ObserveTriage records a completed triage sweep and its transitions.
func (m *Metrics) ObserveTriage(promoted, demoted int) {
	if m == nil {
		return
	}
	m.triageRuns.Inc()
	m.triageMoves.WithLabelValues("Picking").Add(float64(promoted))
	m.triageMoves.WithLabelValues("On Hold").Add(float64(demoted))
}

// Registerer exposes the registry for custom metric registration.
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

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
