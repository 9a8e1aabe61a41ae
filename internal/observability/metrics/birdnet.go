package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BirdNETMetrics holds the collectors for the exposed query functions.
type BirdNETMetrics struct {
	registry *prometheus.Registry

	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec

	collectors []prometheus.Collector
}

// NewBirdNETMetrics creates and registers the query metrics.
func NewBirdNETMetrics(registry *prometheus.Registry) (*BirdNETMetrics, error) {
	m := &BirdNETMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *BirdNETMetrics) initMetrics() {
	m.queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birdnet_queries_total",
			Help: "Total number of function invocations",
		},
		[]string{"function", "status"}, // status: success, error
	)

	m.queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "birdnet_query_duration_seconds",
			Help:    "Time taken to answer a function invocation",
			Buckets: prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount15),
		},
		[]string{"function"},
	)

	m.collectors = []prometheus.Collector{
		m.queriesTotal,
		m.queryDuration,
	}
}

// RecordQuery counts one invocation and observes its duration.
func (m *BirdNETMetrics) RecordQuery(function, status string, seconds float64) {
	m.queriesTotal.WithLabelValues(function, status).Inc()
	m.queryDuration.WithLabelValues(function).Observe(seconds)
}

// Describe implements the Collector interface
func (m *BirdNETMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *BirdNETMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}
