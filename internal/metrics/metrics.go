package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lending"

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	AccountsRegistered  prometheus.Counter
	AccountsBlocked     *prometheus.CounterVec
	AuthFailures        prometheus.Counter
	LoansCreated        *prometheus.CounterVec
	LoanTransitions     *prometheus.CounterVec
	EventsPublished     *prometheus.CounterVec
	RequestLogsPurged   prometheus.Counter
	RateLimited         prometheus.Counter
}

// New creates and registers all metrics on a fresh registry that also carries
// the Go runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers all metrics on reg
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AccountsRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_registered_total",
			Help:      "Total number of accounts created",
		}),
		AccountsBlocked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_block_changes_total",
			Help:      "Total number of block flag changes by resulting state",
		}, []string{"blocked"}),
		AuthFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of rejected authentication attempts",
		}),
		LoansCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loans_created_total",
			Help:      "Total number of loans created by category",
		}, []string{"category"}),
		LoanTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loan_status_transitions_total",
			Help:      "Total number of loan status changes by target status",
		}, []string{"status"}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of domain events by routing key and result",
		}, []string{"routing_key", "result"}),
		RequestLogsPurged: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_logs_purged_total",
			Help:      "Total number of request log entries removed by retention",
		}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one completed HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// IncrementAccountsRegistered increments the registration counter by 1
func (m *Metrics) IncrementAccountsRegistered() {
	m.AccountsRegistered.Inc()
}

// RecordBlockChange counts one block or unblock
func (m *Metrics) RecordBlockChange(blocked bool) {
	if blocked {
		m.AccountsBlocked.WithLabelValues("true").Inc()
		return
	}
	m.AccountsBlocked.WithLabelValues("false").Inc()
}

// IncrementAuthFailures increments the failed authentication counter by 1
func (m *Metrics) IncrementAuthFailures() {
	m.AuthFailures.Inc()
}

// RecordLoanCreated counts one new loan
func (m *Metrics) RecordLoanCreated(category string) {
	m.LoansCreated.WithLabelValues(category).Inc()
}

// RecordLoanTransition counts one status change
func (m *Metrics) RecordLoanTransition(status string) {
	m.LoanTransitions.WithLabelValues(status).Inc()
}

// RecordEvent counts one publish attempt
func (m *Metrics) RecordEvent(routingKey string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(routingKey, result).Inc()
}

// AddRequestLogsPurged adds n removed entries
func (m *Metrics) AddRequestLogsPurged(n int) {
	m.RequestLogsPurged.Add(float64(n))
}

// IncrementRateLimited increments the rejected request counter by 1
func (m *Metrics) IncrementRateLimited() {
	m.RateLimited.Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
