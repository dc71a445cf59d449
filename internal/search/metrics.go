package search

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricSearchRequests = "search_requests_total"
	MetricSearchDuration = "search_duration_seconds"
	MetricSearchResults  = "search_results_returned"
)

// Metrics contains Prometheus metrics for search operations.
// All operations are thread-safe.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	results  prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSearchRequests,
				Help: "Total number of search requests by outcome",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricSearchDuration,
				Help:    "Search request duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"mode"},
		),
		results: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricSearchResults,
				Help:    "Number of results in the full filtered set per search",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k
			},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveSearch records one completed search.
// status: "ok", "invalid", or "error"
// mode: the resolved ordering mode
// seconds: wall time for the request
// total: size of the full filtered set
func (m *Metrics) ObserveSearch(status, mode string, seconds float64, total int) {
	m.requests.WithLabelValues(status).Inc()
	if status == "ok" {
		m.duration.WithLabelValues(mode).Observe(seconds)
		m.results.Observe(float64(total))
	}
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.duration, m.results}
}
