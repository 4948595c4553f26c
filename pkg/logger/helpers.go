package logger

import (
	"time"
)

// LogRequest logs one upstream HTTP exchange
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.WarnWithFields("upstream server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("upstream client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogPage logs the outcome of one crawled page
func LogPage(l Logger, page, kept, skipped int, cursorFound, limitReached bool) {
	l.InfoWithFields("page processed", map[string]interface{}{
		"page":          page,
		"kept":          kept,
		"skipped":       skipped,
		"cursor_found":  cursorFound,
		"limit_reached": limitReached,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, cfg map[string]interface{}) {
	l = l.WithField("component", component)
	if len(cfg) > 0 {
		l = l.WithFields(cfg)
	}
	l.Info("component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(string)                                       {}
func (n nopLogger) Info(string)                                        {}
func (n nopLogger) Warn(string)                                        {}
func (n nopLogger) Error(string)                                       {}
func (n nopLogger) WithField(string, interface{}) Logger               { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger           { return n }
func (n nopLogger) WithError(error) Logger                             { return n }
func (n nopLogger) DebugWithFields(string, map[string]interface{})     {}
func (n nopLogger) InfoWithFields(string, map[string]interface{})      {}
func (n nopLogger) WarnWithFields(string, map[string]interface{})      {}
func (n nopLogger) ErrorWithFields(string, map[string]interface{})     {}
