package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "labelme"

// Metrics holds the dashboard's Prometheus collectors. All methods are safe
// on a nil receiver so metrics stay optional for library callers and tests.
type Metrics struct {
	Registry *prometheus.Registry

	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	cacheClears   prometheus.Counter
	viewErrors    *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// NewMetrics creates collectors registered on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warehouse_queries_total",
			Help:      "Warehouse queries issued, by query id and outcome.",
		}, []string{"query", "status"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "warehouse_query_duration_seconds",
			Help:      "Warehouse query latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"query"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Result cache hits by query id.",
		}, []string{"query"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Result cache misses by query id.",
		}, []string{"query"}),
		cacheClears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_clears_total",
			Help:      "Manual cache invalidations.",
		}),
		viewErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_errors_total",
			Help:      "Views rendered with an inline error.",
		}, []string{"view"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.Registry.MustRegister(
		m.queries,
		m.queryDuration,
		m.cacheHits,
		m.cacheMisses,
		m.cacheClears,
		m.viewErrors,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// RecordQuery records one warehouse round trip
func (m *Metrics) RecordQuery(query string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.queries.WithLabelValues(query, status).Inc()
	m.queryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheHit(query string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(query).Inc()
}

func (m *Metrics) RecordCacheMiss(query string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(query).Inc()
}

func (m *Metrics) RecordCacheClear() {
	if m == nil {
		return
	}
	m.cacheClears.Inc()
}

func (m *Metrics) RecordViewError(view string) {
	if m == nil {
		return
	}
	m.viewErrors.WithLabelValues(view).Inc()
}

func (m *Metrics) RecordRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, http.StatusText(code)).Inc()
}
