// Package metrics provides the Prometheus collectors for BirdNET MCP.
package metrics

// Query outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Store load failure reasons.
const (
	ReasonNotFound   = "not_found"
	ReasonReadError  = "read_error"
	ReasonParseError = "parse_error"
)

// Histogram bucket configuration.
const (
	// BucketStart100us is the starting bucket for 0.1ms histograms (0.1ms to ~400ms range).
	BucketStart100us = 0.0001
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~16s range).
	BucketStart1ms = 0.001
	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
	// BucketCount15 defines 15 exponential buckets.
	BucketCount15 = 15
)
