// Package metrics holds the Prometheus collectors exported on /metrics.
// All recording methods are safe to call on a nil *Registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns a private Prometheus registry and the riskdesk collectors
type Registry struct {
	reg *prometheus.Registry

	AnalyticsRequests *prometheus.CounterVec
	AnalyticsDuration *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
	ProviderRequests  *prometheus.CounterVec
	JobRuns           *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates and registers all collectors, plus Go runtime and process collectors
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		AnalyticsRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskdesk_analytics_requests_total",
				Help: "Analytics operations by operation and outcome (ok or error kind)",
			},
			[]string{"operation", "outcome"},
		),
		AnalyticsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskdesk_analytics_duration_seconds",
				Help:    "Analytics operation latency including data fetches",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskdesk_cache_lookups_total",
				Help: "Market data cache lookups by cache and result (hit or miss)",
			},
			[]string{"cache", "result"},
		),
		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskdesk_provider_requests_total",
				Help: "Upstream market data requests by provider and status",
			},
			[]string{"provider", "status"},
		),
		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskdesk_job_runs_total",
				Help: "Scheduled job executions by job and status",
			},
			[]string{"job", "status"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskdesk_http_requests_total",
				Help: "HTTP requests by method, route pattern and status code",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskdesk_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route pattern",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.AnalyticsRequests,
		r.AnalyticsDuration,
		r.CacheLookups,
		r.ProviderRequests,
		r.JobRuns,
		r.HTTPRequests,
		r.HTTPDuration,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveAnalytics records one analytics operation
func (r *Registry) ObserveAnalytics(operation, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.AnalyticsRequests.WithLabelValues(operation, outcome).Inc()
	r.AnalyticsDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// CacheLookup records a cache hit or miss
func (r *Registry) CacheLookup(cache string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheLookups.WithLabelValues(cache, result).Inc()
}

// ProviderRequest records an upstream call
func (r *Registry) ProviderRequest(provider, status string) {
	if r == nil {
		return
	}
	r.ProviderRequests.WithLabelValues(provider, status).Inc()
}

// JobRun records a scheduled job execution
func (r *Registry) JobRun(job string, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.JobRuns.WithLabelValues(job, status).Inc()
}

// HTTPRequest records a served request
func (r *Registry) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
