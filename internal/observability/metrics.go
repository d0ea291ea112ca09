package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "asesor"

// Metrics holds the Prometheus counters, histograms, and gauges for report
// generation and serving. Generation series are pushed by batch runs; the
// server records ReportRequests.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec // labels: outcome={success,config_error,unknown_locality,upstream_error,malformed_response,publish_error,error}
	UpstreamAttempts *prometheus.CounterVec // labels: result={success,transient,permanent}
	UpstreamDuration prometheus.Histogram
	PublishFailures  *prometheus.CounterVec // labels: sink={file,remote_store,kafka}
	LastSuccess      prometheus.Gauge
	ReportRequests   *prometheus.CounterVec // labels: result={served,not_found,error}

	registry *prometheus.Registry
}

func newCollectors() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_runs_total",
			Help:      "Report generation runs by outcome.",
		}, []string{"outcome"}),
		UpstreamAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_attempts_total",
			Help:      "Text-generation requests by result.",
		}, []string{"result"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of a single text-generation request.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
		}),
		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Failed report deliveries by sink.",
		}, []string{"sink"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successfully published report.",
		}),
		ReportRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_requests_total",
			Help:      "Artifact requests served over HTTP by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RunsTotal,
		m.UpstreamAttempts,
		m.UpstreamDuration,
		m.PublishFailures,
		m.LastSuccess,
		m.ReportRequests,
	}
}

// NewMetrics creates and registers all report metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newCollectors()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	return m
}

// Gatherer returns the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m.registry != nil {
		return m.registry
	}
	return prometheus.DefaultGatherer
}
