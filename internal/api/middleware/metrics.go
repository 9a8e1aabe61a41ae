package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/birdnet-mcp/internal/observability/metrics"
)

// unmatchedPath labels requests that hit no route, keeping label cardinality bounded.
const unmatchedPath = "unmatched"

// NewRequestMetrics records method, route template, status and latency for
// every request. Handler errors are committed through c.Error first so the
// recorded status matches what the client receives.
func NewRequestMetrics(recorder metrics.HTTPRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = unmatchedPath
			}
			recorder.RecordHTTPRequest(c.Request().Method, path, c.Response().Status, time.Since(start).Seconds())
			return nil
		}
	}
}
