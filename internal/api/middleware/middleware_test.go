package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-mcp/internal/logger"
)

type httpRecord struct {
	method string
	path   string
	status int
}

type recordingRecorder struct {
	mu      sync.Mutex
	records []httpRecord
}

func (r *recordingRecorder) RecordHTTPRequest(method, path string, statusCode int, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, httpRecord{method, path, statusCode})
}

func serve(e *echo.Echo, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequestMetricsUsesRouteTemplate(t *testing.T) {
	t.Parallel()

	recorder := &recordingRecorder{}
	e := echo.New()
	e.Use(NewRequestMetrics(recorder))
	e.GET("/items/:id", func(c echo.Context) error { return c.String(http.StatusOK, c.Param("id")) })
	e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "bad") })

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/items/42", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/fail", nil).Code)

	require.Len(t, recorder.records, 2)
	assert.Equal(t, httpRecord{http.MethodGet, "/items/:id", http.StatusOK}, recorder.records[0])
	assert.Equal(t, httpRecord{http.MethodGet, "/fail", http.StatusBadRequest}, recorder.records[1])
}

func TestRateLimiterDeniesBurstOverflow(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewRateLimiter(0.5))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	// burst of one at half a request per second
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/", nil).Code)
	rec := serve(e, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
}

func TestRateLimiterDisabled(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewRateLimiter(0))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for range 20 {
		assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/", nil).Code)
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewRequestID(), NewCORS(DefaultSecurityConfig()))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := serve(e, http.MethodGet, "/", map[string]string{echo.HeaderOrigin: "http://example.com"})
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	_, err := uuid.Parse(rec.Header().Get(echo.HeaderXRequestID))
	require.NoError(t, err)

	rec = serve(e, http.MethodGet, "/", map[string]string{echo.HeaderXRequestID: "client-id"})
	assert.Equal(t, "client-id", rec.Header().Get(echo.HeaderXRequestID))
}

func TestRequestIDSetsTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelInfo, time.UTC)

	e := echo.New()
	e.Use(NewRequestID())
	e.GET("/", func(c echo.Context) error {
		log.WithContext(c.Request().Context()).Info("handled")
		return c.NoContent(http.StatusNoContent)
	})

	serve(e, http.MethodGet, "/", map[string]string{echo.HeaderXRequestID: "req-7"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "req-7", entry["trace_id"])
}

func TestSecureHeaders(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(NewSecureHeaders(DefaultSecurityConfig()))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := serve(e, http.MethodGet, "/", nil)
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get(echo.HeaderXFrameOptions))
}
