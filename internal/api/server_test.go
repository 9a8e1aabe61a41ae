package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-mcp/internal/birdnet"
	"github.com/tphakala/birdnet-mcp/internal/conf"
	"github.com/tphakala/birdnet-mcp/internal/datastore"
	"github.com/tphakala/birdnet-mcp/internal/errors"
	"github.com/tphakala/birdnet-mcp/internal/logger"
	"github.com/tphakala/birdnet-mcp/internal/myaudio"
	"github.com/tphakala/birdnet-mcp/internal/observability"
	"github.com/tphakala/birdnet-mcp/internal/testutil"
)

var clip = []byte("RIFF\x00\x00\x00\x00not really audio")

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := testutil.Settings(t, testutil.SampleLog)
	testutil.WriteAudio(t, settings, "robin1.wav", clip)
	return settings
}

type testServer struct {
	server  *Server
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, mutate func(*conf.Settings)) *testServer {
	t.Helper()
	return newTestServerWithLogger(t, mutate, testutil.DiscardLogger())
}

func newTestServerWithLogger(t *testing.T, mutate func(*conf.Settings), log logger.Logger) *testServer {
	t.Helper()

	settings := testSettings(t)
	if mutate != nil {
		mutate(settings)
	}

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	store := datastore.NewFileStore(settings.DetectionFilePath(), settings.Location(), log, m.Datastore)
	audio := myaudio.NewRetriever(settings.Audio.Path, settings.Audio.MaxFileSize, log)
	svc, err := birdnet.New(settings, store, audio,
		birdnet.WithRecorder(m.BirdNET),
		birdnet.WithLogger(log))
	require.NoError(t, err)

	s, err := New(settings, svc, WithLogger(log), WithMetrics(m))
	require.NoError(t, err)
	return &testServer{server: s, metrics: m}
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ts.server.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestRequestIDReachesServiceLogs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ts := newTestServerWithLogger(t, nil, logger.NewSlogLogger(&buf, logger.LogLevelDebug, time.UTC))

	req := httptest.NewRequest(http.MethodPost, "/invoke",
		strings.NewReader(`{"name":"getDetectionStats","parameters":{"period":"all"}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXRequestID, "trace-abc")
	rec := httptest.NewRecorder()
	ts.server.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	traced := map[string]bool{}
	for line := range strings.Lines(buf.String()) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		if entry["trace_id"] == "trace-abc" {
			traced[entry["msg"].(string)] = true
		}
	}
	assert.True(t, traced["Function completed"], buf.String())
	assert.True(t, traced["request"], buf.String())
}

func TestListFunctions(t *testing.T) {
	t.Parallel()

	rec := newTestServer(t, nil).do(http.MethodGet, "/functions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FunctionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	names := make([]string, 0, len(resp.Functions))
	for _, f := range resp.Functions {
		names = append(names, f.Name)
		assert.NotEmpty(t, f.Description, f.Name)
		assert.Equal(t, "object", f.Parameters.Type, f.Name)
	}
	assert.Equal(t, []string{
		birdnet.FuncGetBirdDetections,
		birdnet.FuncGetDetectionStats,
		birdnet.FuncGetAudioRecording,
		birdnet.FuncGetDailyActivity,
		birdnet.FuncGenerateDetectionReport,
	}, names)
}

func TestInvokeDetections(t *testing.T) {
	t.Parallel()

	rec := newTestServer(t, nil).do(http.MethodPost, "/invoke",
		`{"name":"getBirdDetections","parameters":{"startDate":"2024-01-01","endDate":"2024-01-02"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Total      int `json:"total"`
		Detections []struct {
			AudioFile string `json:"audioFile"`
		} `json:"detections"`
		Stats map[string]float64 `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Detections, 2)
	assert.Equal(t, "robin1.wav", result.Detections[0].AudioFile)
	assert.InDelta(t, 0.885, result.Stats["avg"], 1e-9)
}

func TestInvokeErrors(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)

	testCases := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{"unknown function", `{"name":"getWeather","parameters":{}}`, http.StatusNotFound, "Function getWeather not found"},
		{"missing name", `{"parameters":{}}`, http.StatusBadRequest, "function name is required"},
		{"malformed body", `{"name":`, http.StatusBadRequest, ""},
		{"empty body", "", http.StatusBadRequest, ""},
		{"bad date", `{"name":"getBirdDetections","parameters":{"startDate":"01/01/2024","endDate":"2024-01-02"}}`, http.StatusBadRequest, "startDate"},
		{"reversed range", `{"name":"getBirdDetections","parameters":{"startDate":"2024-01-03","endDate":"2024-01-02"}}`, http.StatusBadRequest, ""},
		{"bad period", `{"name":"getDetectionStats","parameters":{"period":"year"}}`, http.StatusBadRequest, "period"},
		{"wrong type", `{"name":"getDetectionStats","parameters":{"period":"day","minConfidence":"high"}}`, http.StatusBadRequest, "minConfidence"},
		{"missing audio", `{"name":"getAudioRecording","parameters":{"filename":"missing.wav"}}`, http.StatusNotFound, "audio file not found"},
		{"traversal", `{"name":"getAudioRecording","parameters":{"filename":"../data/detections.json"}}`, http.StatusBadRequest, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := ts.do(http.MethodPost, "/invoke", tc.body)
			require.Equal(t, tc.code, rec.Code, rec.Body.String())

			resp := decodeError(t, rec)
			assert.Equal(t, tc.code, resp.Code)
			assert.Contains(t, resp.Message, tc.message)
			_, err := uuid.Parse(resp.CorrelationID)
			assert.NoError(t, err)
		})
	}
}

func TestInvokeAudioFormats(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/invoke", `{"name":"getAudioRecording","parameters":{"filename":"robin1.wav"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Format      string `json:"format"`
		ContentType string `json:"contentType"`
		Size        int    `json:"size"`
		Audio       string `json:"audio"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "base64", result.Format)
	assert.Equal(t, "audio/wav", result.ContentType)
	assert.Equal(t, len(clip), result.Size)
	decoded, err := base64.StdEncoding.DecodeString(result.Audio)
	require.NoError(t, err)
	assert.Equal(t, clip, decoded)

	rec = ts.do(http.MethodPost, "/invoke", `{"name":"getAudioRecording","parameters":{"filename":"robin1.wav","format":"buffer"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `inline; filename="robin1.wav"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, clip, rec.Body.Bytes())
}

func TestInvokeReport(t *testing.T) {
	t.Parallel()

	rec := newTestServer(t, nil).do(http.MethodPost, "/invoke",
		`{"name":"generateDetectionReport","parameters":{"startDate":"2024-01-01","endDate":"2024-01-03","format":"markdown"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result birdnet.ReportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "text/markdown; charset=utf-8", result.ContentType)
	assert.Contains(t, result.Report, "Total Detections: 3")
}

type failingInvoker struct{}

func (failingInvoker) Invoke(context.Context, string, json.RawMessage) (any, error) {
	return nil, errors.NewStd("disk on fire")
}

func TestInternalErrorsHideDetails(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	s, err := New(settings, failingInvoker{}, WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(`{"name":"x"}`)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, "Internal server error", resp.Message)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	t.Parallel()

	rec := newTestServer(t, nil).do(http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.NotEmpty(t, resp.CorrelationID)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/invoke", `{"name":"getDetectionStats","parameters":{"period":"all"}}`).Code)
	require.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, "/invoke", `{"name":"getWeather"}`).Code)

	rec := ts.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "unknown", health["version"])
	assert.InDelta(t, 3, health["detections_loaded"], 0)

	var storage struct {
		Storage map[string]StorageStatus `json:"storage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &storage))
	assert.True(t, storage.Storage["data"].Exists)
	assert.True(t, storage.Storage["audio"].Exists)
	assert.Positive(t, storage.Storage["audio"].TotalBytes)

	rec = ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `birdnet_queries_total{function="getDetectionStats",status="success"} 1`)
	assert.Contains(t, body, `birdnet_detections_loaded 3`)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/invoke",status_code="200"} 1`)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/invoke",status_code="404"} 1`)
}

func TestMetricsEndpointDisabled(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, func(s *conf.Settings) { s.Metrics.Enabled = false })
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/metrics", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/invoke", http.NoBody)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	ts.server.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, func(s *conf.Settings) { s.Server.RateLimit = 0.5 })
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/functions", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(http.MethodGet, "/functions", "").Code)
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)
	settings.Server.Listen = "no-port"
	_, err := New(settings, failingInvoker{})
	require.Error(t, err)

	_, err = New(testSettings(t), nil)
	require.Error(t, err)
}

func TestStartAndShutdown(t *testing.T) {
	ts := newTestServer(t, func(s *conf.Settings) { s.Server.Listen = "127.0.0.1:0" })

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- ts.server.Start(ctx) }()

	require.Eventually(t, func() bool { return ts.server.Echo().ListenerAddr() != nil }, 5*time.Second, 10*time.Millisecond)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ts.server.Echo().ListenerAddr().String() + "/health")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Error(t, ts.server.Start(ctx), "second Start while running")

	cancel()
	require.NoError(t, testutil.Receive(t, done, testutil.DefaultTestTimeout, "server did not shut down"))
}
