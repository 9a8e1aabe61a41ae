package errors

import (
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	mu      sync.Mutex
	enabled bool
	got     []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, ee)
}

func (r *recordingReporter) IsEnabled() bool { return r.enabled }

func TestBuilderDefaults(t *testing.T) {
	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.Timestamp.IsZero())
	assert.Nil(t, ee.GetContext())
}

func TestBuilderFluentFields(t *testing.T) {
	ee := Newf("bad date %q", "2024-13-01").
		Component("detection").
		Category(CategoryValidation).
		Context("field", "startDate").
		Build()

	assert.Equal(t, `bad date "2024-13-01"`, ee.Error())
	assert.Equal(t, "detection", ee.Component)
	assert.True(t, IsValidation(ee))
	assert.False(t, IsNotFound(ee))
	assert.Equal(t, map[string]any{"field": "startDate"}, ee.GetContext())
}

func TestCategoryInheritedFromWrapped(t *testing.T) {
	inner := New(NewStd("missing")).Category(CategoryNotFound).Build()
	outer := New(fmt.Errorf("lookup: %w", inner)).Component("myaudio").Build()

	assert.True(t, IsNotFound(outer))
}

func TestIsAndUnwrap(t *testing.T) {
	sentinel := NewStd("sentinel")
	ee := New(sentinel).Category(CategoryFileIO).Build()

	require.ErrorIs(t, ee, sentinel)
	assert.Equal(t, sentinel, Unwrap(ee))
	assert.True(t, Is(ee, &EnhancedError{Category: CategoryFileIO}))
	assert.False(t, Is(ee, &EnhancedError{Category: CategoryHTTP}))

	wrapped := New(fmt.Errorf("open: %w", os.ErrNotExist)).Build()
	assert.ErrorIs(t, wrapped, os.ErrNotExist)
}

func TestContextIsCopied(t *testing.T) {
	ee := New(NewStd("x")).Context("k", "v").Build()

	ctx := ee.GetContext()
	ctx["k"] = "changed"

	assert.Equal(t, "v", ee.GetContext()["k"])
}

func TestTelemetryReporting(t *testing.T) {
	rep := &recordingReporter{enabled: true}
	SetTelemetryReporter(rep)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("boom")).Component("api").Build()

	require.Len(t, rep.got, 1)
	assert.Same(t, ee, rep.got[0])

	rep.enabled = false
	New(NewStd("quiet")).Build()
	assert.Len(t, rep.got, 1)
}

func TestSentryReporterDisabledIsNoop(t *testing.T) {
	sr := NewSentryReporter(false)
	ee := New(NewStd("x")).Build()

	sr.ReportError(ee)

	assert.False(t, sr.IsEnabled())
	assert.False(t, ee.IsReported())
}

func TestScrubMessage(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		absent  string
		present string
	}{
		{"query string", "fetch https://example.com/a?api_key=secret", "secret", "https://example.com/a?[REDACTED]"},
		{"api key", "config api_key=abc123 rejected", "abc123", "[REDACTED]"},
		{"token", "auth failed token=xyz", "xyz", "[REDACTED]"},
		{"plain", "audio file not found", "", "audio file not found"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := scrubMessage(tc.input)
			if tc.absent != "" {
				assert.NotContains(t, got, tc.absent)
			}
			assert.Contains(t, got, tc.present)
		})
	}
}
