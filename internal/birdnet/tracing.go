package birdnet

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/birdnet-mcp/internal/observability/metrics"
)

// span traces one function invocation. The Sentry span is only created
// when a Sentry client is bound to the current hub.
type span struct {
	function   string
	startTime  time.Time
	sentrySpan *sentry.Span
	recorder   metrics.QueryRecorder
}

func startSpan(ctx context.Context, function string, recorder metrics.QueryRecorder) (*span, context.Context) {
	s := &span{
		function:  function,
		startTime: time.Now(),
		recorder:  recorder,
	}

	if sentry.CurrentHub().Client() != nil {
		s.sentrySpan = sentry.StartSpan(ctx, "birdnet.function", sentry.WithDescription(function))
		s.sentrySpan.SetTag("function", function)
		ctx = s.sentrySpan.Context()
	}

	return s, ctx
}

// Finish records the outcome and duration.
func (s *span) Finish(err error) time.Duration {
	duration := time.Since(s.startTime)

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	s.recorder.RecordQuery(s.function, status, duration.Seconds())

	if s.sentrySpan != nil {
		s.sentrySpan.SetData("duration_ms", duration.Milliseconds())
		if err != nil {
			s.sentrySpan.Status = sentry.SpanStatusInternalError
			s.sentrySpan.SetTag("error", "true")
		} else {
			s.sentrySpan.Status = sentry.SpanStatusOK
		}
		s.sentrySpan.Finish()
	}
	return duration
}
