package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/tphakala/birdnet-mcp/internal/logger"
)

// DatastoreMetrics tracks loads of the detection log.
type DatastoreMetrics struct {
	registry *prometheus.Registry

	detectionsLoaded prometheus.Gauge
	loadErrors       *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewDatastoreMetrics creates and registers the detection store metrics.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() {
	m.detectionsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "birdnet_detections_loaded",
			Help: "Number of detections read by the most recent load",
		},
	)

	m.loadErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birdnet_store_load_errors_total",
			Help: "Detection log loads that fell back to an empty set",
		},
		[]string{"reason"}, // reason: not_found, read_error, parse_error
	)

	m.collectors = []prometheus.Collector{
		m.detectionsLoaded,
		m.loadErrors,
	}
}

// SetDetectionsLoaded sets the size of the last loaded record set.
func (m *DatastoreMetrics) SetDetectionsLoaded(count int) {
	m.detectionsLoaded.Set(float64(count))
}

// DetectionsLoaded returns the current value of the loaded detections gauge.
func (m *DatastoreMetrics) DetectionsLoaded() float64 {
	metric := &dto.Metric{}
	if err := m.detectionsLoaded.Write(metric); err != nil {
		log.Warn("Failed to read detections gauge", logger.Error(err))
		return 0
	}
	if metric.Gauge != nil && metric.Gauge.Value != nil {
		return *metric.Gauge.Value
	}
	return 0
}

// RecordLoadError counts a failed load by reason.
func (m *DatastoreMetrics) RecordLoadError(reason string) {
	m.loadErrors.WithLabelValues(reason).Inc()
}

// Describe implements the Collector interface
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}
