package errors

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

// SentryReporter implements TelemetryReporter for Sentry
type SentryReporter struct {
	enabled bool
}

// NewSentryReporter creates a new Sentry telemetry reporter
func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

// IsEnabled returns whether Sentry telemetry is enabled
func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError reports an enhanced error to Sentry with query strings and
// tokens scrubbed from the message.
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	message := scrubMessage(fmt.Sprintf("[%s] %s", ee.Category, ee.Err.Error()))

	sentry.WithScope(func(scope *sentry.Scope) {
		title := errorTitle(ee)
		scope.SetTag("component", ee.Component)
		scope.SetTag("category", string(ee.Category))
		scope.SetTag("error_type", fmt.Sprintf("%T", ee.Err))

		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok {
				value = scrubMessage(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}

		level := levelFor(ee.Category)
		scope.SetLevel(level)
		scope.SetFingerprint([]string{title, ee.Component, string(ee.Category)})

		event := sentry.NewEvent()
		event.Message = message
		event.Level = level
		event.Exception = []sentry.Exception{{Type: title, Value: message}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

func errorTitle(ee *EnhancedError) string {
	parts := make([]string, 0, 2)
	if ee.Component != "" && ee.Component != ComponentUnknown {
		parts = append(parts, ee.Component)
	}
	parts = append(parts, string(ee.Category))
	return strings.Join(parts, " ")
}

func levelFor(category ErrorCategory) sentry.Level {
	switch category {
	case CategoryValidation, CategoryNotFound:
		return sentry.LevelInfo
	case CategoryFileIO, CategoryFileParsing, CategoryHTTP, CategoryAudio:
		return sentry.LevelWarning
	default:
		return sentry.LevelError
	}
}

var (
	globalReporter atomic.Pointer[TelemetryReporter]

	queryStringPattern = regexp.MustCompile(`(https?://[^?\s]+)\?\S*`)
	secretPatterns     = []*regexp.Regexp{
		regexp.MustCompile(`(?i)api[_-]?key[=:]\S+`),
		regexp.MustCompile(`(?i)token[=:]\S+`),
		regexp.MustCompile(`(?i)dsn[=:]\S+`),
	}
)

// SetTelemetryReporter sets the global telemetry reporter; nil disables reporting.
func SetTelemetryReporter(reporter TelemetryReporter) {
	if reporter == nil {
		globalReporter.Store(nil)
		return
	}
	globalReporter.Store(&reporter)
}

func reportToTelemetry(ee *EnhancedError) {
	p := globalReporter.Load()
	if p == nil {
		return
	}
	if r := *p; r.IsEnabled() {
		r.ReportError(ee)
	}
}

// scrubMessage removes URL query strings and credential-like tokens.
func scrubMessage(message string) string {
	scrubbed := queryStringPattern.ReplaceAllString(message, "$1?[REDACTED]")
	for _, re := range secretPatterns {
		scrubbed = re.ReplaceAllString(scrubbed, "[REDACTED]")
	}
	return scrubbed
}
