package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names
const (
	MetricHTTPRequestsTotal      = "procurement_http_requests_total"
	MetricHTTPRequestDuration    = "procurement_http_request_duration_seconds"
	MetricHTTPActiveRequests     = "procurement_http_active_requests"
	MetricRemindersTotal         = "procurement_reminders_total"
	MetricApprovalsTotal         = "procurement_approval_actions_total"
	MetricEmailsTotal            = "procurement_emails_total"
	MetricJobRunsTotal           = "procurement_job_runs_total"
	MetricJobDurationSeconds     = "procurement_job_duration_seconds"
	MetricDashboardCacheRequests = "procurement_dashboard_cache_requests_total"
)

// HTTPDurationBuckets are latency buckets in seconds tuned for an API server
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics owns a private Prometheus registry and the instruments recorded by the service
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpActive      prometheus.Gauge
	reminders       *prometheus.CounterVec
	approvals       *prometheus.CounterVec
	emails          *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	dashboardLookup *prometheus.CounterVec
}

// NewMetrics registers every instrument plus the Go and process collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "HTTP request latency in seconds",
			Buckets: HTTPDurationBuckets,
		}, []string{"method", "route"}),
		httpActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricHTTPActiveRequests,
			Help: "Number of in-flight HTTP requests",
		}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRemindersTotal,
			Help: "Reminder sweep outcomes by subject and action",
		}, []string{"subject", "action"}),
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricApprovalsTotal,
			Help: "Email approval link actions by kind and outcome",
		}, []string{"kind", "outcome"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricEmailsTotal,
			Help: "Outbound emails by template and status",
		}, []string{"template", "status"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricJobRunsTotal,
			Help: "Background job attempts by kind and status",
		}, []string{"kind", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricJobDurationSeconds,
			Help:    "Background job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"kind"}),
		dashboardLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricDashboardCacheRequests,
			Help: "Dashboard cache lookups by view and result",
		}, []string{"view", "result"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.httpActive,
		m.reminders, m.approvals, m.emails,
		m.jobRuns, m.jobDuration, m.dashboardLookup,
	)
	return m
}

// Registry exposes the registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// HTTPStarted marks a request in flight
func (m *Metrics) HTTPStarted() {
	if m == nil {
		return
	}
	m.httpActive.Inc()
}

// ObserveHTTP records a finished request
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpActive.Dec()
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Reminder counts one reminder sweep outcome
func (m *Metrics) Reminder(subject, action string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(subject, action).Inc()
}

// ApprovalAction counts one approval link action
func (m *Metrics) ApprovalAction(kind, outcome string) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(kind, outcome).Inc()
}

// Email counts one send attempt
func (m *Metrics) Email(template, status string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(template, status).Inc()
}

// Job records one background job attempt
func (m *Metrics) Job(kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(kind, status).Inc()
	m.jobDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// DashboardCache counts one cache lookup
func (m *Metrics) DashboardCache(view string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.dashboardLookup.WithLabelValues(view, result).Inc()
}
