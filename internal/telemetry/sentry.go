// Package telemetry wires optional Sentry error reporting.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/birdnet-mcp/internal/buildinfo"
	"github.com/tphakala/birdnet-mcp/internal/conf"
	"github.com/tphakala/birdnet-mcp/internal/errors"
	"github.com/tphakala/birdnet-mcp/internal/logger"
)

// flushTimeout bounds how long shutdown waits for queued events.
const flushTimeout = 2 * time.Second

// Init initializes the Sentry SDK and registers it as the error reporter.
// Telemetry is opt-in: nothing happens unless sentry.enabled is set.
func Init(settings *conf.Settings, build *buildinfo.Context) error {
	log := logger.Global().Module("telemetry")

	if !settings.Sentry.Enabled {
		log.Debug("Sentry telemetry is disabled")
		errors.SetTelemetryReporter(nil)
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "", // keep the hostname out of events
		Release:          fmt.Sprintf("birdnet-mcp@%s", build.GetVersion()),
		BeforeSend:       stripRequestData,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	log.Info("Sentry telemetry initialized", logger.String("release", build.GetVersion()))
	return nil
}

// Flush waits for queued Sentry events; a no-op when telemetry is disabled.
func Flush(settings *conf.Settings) {
	if settings == nil || !settings.Sentry.Enabled {
		return
	}
	sentry.Flush(flushTimeout)
}

// stripRequestData drops request and user data that may carry local paths.
func stripRequestData(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.Request = nil
	event.User = sentry.User{}
	event.ServerName = ""
	return event
}
