// Package observability wires the Prometheus registry and its HTTP exposition.
// Sentry-related monitoring and error telemetry are handled in the telemetry package.
package observability

import "github.com/tphakala/birdnet-mcp/internal/logger"

// Package-level cached logger instance for efficiency.
// All logging in this package should use this variable.
var log = logger.Global().Module("observability")
