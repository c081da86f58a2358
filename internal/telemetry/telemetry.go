// Package telemetry reports enhanced errors to Sentry when enabled in the
// configuration. It plugs into the errors package's reporter hook so the
// error sites stay free of telemetry concerns.
package telemetry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/noisewatch/noisewatch-go/internal/conf"
	"github.com/noisewatch/noisewatch-go/internal/errors"
	"github.com/noisewatch/noisewatch-go/internal/logging"
)

var serviceLogger *slog.Logger

// Init initializes the Sentry SDK and installs the error reporter.
// A disabled Sentry config is not an error; reporting simply stays off.
func Init(settings *conf.Settings) error {
	serviceLogger = logging.ForService("telemetry")

	if !settings.Sentry.Enabled {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:        settings.Sentry.DSN,
		SampleRate: 1.0,
		Debug:      settings.Debug,

		// The complaint workflow carries personal data; keep stack traces and
		// hostnames out of the events.
		AttachStacktrace: false,
		ServerName:       "",
		Environment:      "production",

		BeforeSend: scrubEvent,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	errors.SetReporter(&sentryReporter{})
	serviceLogger.Info("sentry error reporting enabled")
	return nil
}

// scrubEvent removes identifying data before an event leaves the process.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	for k := range event.Extra {
		if k != "component" && k != "category" {
			delete(event.Extra, k)
		}
	}
	return event
}

type sentryReporter struct{}

// ReportError implements errors.Reporter. Only upstream failures and errors
// explicitly marked high or critical are worth an event; validation noise
// stays local.
func (r *sentryReporter) ReportError(ee *errors.EnhancedError) {
	if !worthReporting(ee) {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.Component)
		scope.SetTag("category", string(ee.Category))
		scope.SetExtra("component", ee.Component)
		scope.SetExtra("category", string(ee.Category))
		sentry.CaptureException(ee.Err)
	})
}

func worthReporting(ee *errors.EnhancedError) bool {
	switch ee.Priority {
	case errors.PriorityHigh, errors.PriorityCritical:
		return true
	}
	return ee.Category == errors.CategoryUpstream
}

// Flush ensures all buffered events are sent before shutdown.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
