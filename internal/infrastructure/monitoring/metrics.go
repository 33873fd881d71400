// Package monitoring exposes Prometheus metrics for the HTTP API and the
// audit pipeline.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Audit pipeline metrics
	AuditsTotal          *prometheus.CounterVec
	AuditScore           prometheus.Histogram
	FetchFailures        prometheus.Counter
	ReferenceResolutions *prometheus.CounterVec
}

// NewMetrics creates a metrics collector backed by its own registry, so
// several instances can coexist (one per test server).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdp_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pdp_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),

		AuditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdp_audits_total",
				Help: "Audited URLs by outcome (passed, failed, degraded)",
			},
			[]string{"outcome"},
		),
		AuditScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pdp_audit_score",
				Help:    "Distribution of audit scores",
				Buckets: []float64{0, 17, 33, 50, 67, 83, 100},
			},
		),
		FetchFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pdp_fetch_failures_total",
				Help: "Product pages that could not be fetched or parsed",
			},
		),
		ReferenceResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdp_reference_resolutions_total",
				Help: "Reference lookups by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAudit records one audited URL
func (m *Metrics) RecordAudit(outcome string, score int) {
	m.AuditsTotal.WithLabelValues(outcome).Inc()
	m.AuditScore.Observe(float64(score))
}

// RecordFetchFailure counts a page that failed to fetch or parse
func (m *Metrics) RecordFetchFailure() {
	m.FetchFailures.Inc()
}

// RecordReferenceResolution counts a reference lookup outcome
func (m *Metrics) RecordReferenceResolution(outcome string) {
	m.ReferenceResolutions.WithLabelValues(outcome).Inc()
}
