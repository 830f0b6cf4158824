// Package metrics holds the Prometheus collectors for the HTTP API and the
// scheduled refresh.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	refreshTotal    *prometheus.CounterVec
	instances       prometheus.Gauge
	lastRefresh     prometheus.Gauge
	exportsTotal    *prometheus.CounterVec
}

// New registers the collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventcsv_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventcsv_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventcsv_refresh_duration_seconds",
			Help:    "Duration of scheduled refreshes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventcsv_refresh_total",
			Help: "Scheduled refreshes by outcome",
		}, []string{"result"}),
		instances: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eventcsv_refresh_instances",
			Help: "Event instances written by the last successful refresh",
		}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eventcsv_refresh_last_success_timestamp_seconds",
			Help: "Unix time of the last successful refresh",
		}),
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventcsv_exports_total",
			Help: "Documents rendered through the API by format",
		}, []string{"format"}),
	}

	registry.MustRegister(
		m.requestDuration,
		m.requestTotal,
		m.refreshDuration,
		m.refreshTotal,
		m.instances,
		m.lastRefresh,
		m.exportsTotal,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	m.requestDuration.With(labels).Observe(d.Seconds())
	m.requestTotal.With(labels).Inc()
}

// ObserveRefresh records one refresh run. instances and at are only used on
// success.
func (m *Metrics) ObserveRefresh(d time.Duration, instances int, at time.Time, err error) {
	m.refreshDuration.Observe(d.Seconds())
	if err != nil {
		m.refreshTotal.WithLabelValues("error").Inc()
		return
	}
	m.refreshTotal.WithLabelValues("ok").Inc()
	m.instances.Set(float64(instances))
	m.lastRefresh.Set(float64(at.Unix()))
}

// CountExport records one rendered document of the given format.
func (m *Metrics) CountExport(format string) {
	m.exportsTotal.WithLabelValues(format).Inc()
}

// Middleware times every request passing through next. path is the route
// label; unknown paths are folded together to bound cardinality.
func (m *Metrics) Middleware(next http.Handler, routes map[string]bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if !routes[path] {
			path = "other"
		}
		m.ObserveHTTPRequest(r.Method, path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
