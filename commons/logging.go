package commons

import (
	"github.com/getsentry/raven-go"
	log "github.com/sirupsen/logrus"
)

var sentryEnabled bool

// SetupLogging configures the global logrus logger. When sentryDSN is set,
// entries at error level and above are forwarded to Sentry as well.
func SetupLogging(level string, sentryDSN string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	if sentryDSN == "" {
		return nil
	}
	if err := raven.SetDSN(sentryDSN); err != nil {
		return err
	}
	sentryEnabled = true
	log.AddHook(&SentryHook{})
	return nil
}

// SentryHook is a logrus hook that reports error entries to Sentry.
type SentryHook struct {
	// Capture defaults to raven.CaptureError.
	Capture func(err error, tags map[string]string) string
}

func (h *SentryHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel}
}

func (h *SentryHook) Fire(entry *log.Entry) error {
	capture := h.Capture
	if capture == nil {
		capture = func(err error, tags map[string]string) string {
			return raven.CaptureError(err, tags)
		}
	}

	err, ok := entry.Data[log.ErrorKey].(error)
	if !ok {
		err = &Error{Kind: "log", Message: entry.Message}
	}
	tags := map[string]string{"level": entry.Level.String()}
	if entry.Message != "" {
		tags["message"] = entry.Message
	}
	capture(err, tags)
	return nil
}

// Fatal reports err to Sentry (if configured) and terminates the process.
func Fatal(component string, err error) {
	if sentryEnabled {
		raven.CaptureErrorAndWait(err, map[string]string{"component": component})
	}
	log.WithError(err).Fatalf("[%s] aborting", component)
}
