package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	errs "imagegrab/pkg/errors"
)

// LogRequest logs HTTP request information
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode < 400:
		l.DebugWithFields("HTTP request completed", fields)
	case errs.IsRetryableStatusCode(statusCode):
		l.WarnWithFields("HTTP request failed with transient status", fields)
	default:
		l.ErrorWithFields("HTTP request rejected", fields)
	}
}

// LogOutcome logs the terminal state of one download at debug level. The
// console reporter prints the user-facing line.
func LogOutcome(l Logger, status, url, filename, reason string, err error) {
	fields := map[string]interface{}{
		"status":   status,
		"url":      url,
		"filename": filename,
	}
	if reason != "" {
		fields["reason"] = reason
	}

	if err != nil {
		l.WithError(err).DebugWithFields("Download failed", fields)
		return
	}
	l.DebugWithFields(fmt.Sprintf("Download %s", status), fields)
}

// LogSearch logs the result of one search page fetch
func LogSearch(l Logger, query string, links int, err error) {
	if err != nil {
		l.WithError(err).WithField("query", query).Error("Search page fetch failed")
		return
	}
	l.InfoWithFields("Search page scanned", map[string]interface{}{
		"query": query,
		"links": links,
	})
}

// LogSummary logs end-of-run totals
func LogSummary(l Logger, completed, skipped, failed int, elapsed time.Duration) {
	l.InfoWithFields("Run finished", map[string]interface{}{
		"completed": completed,
		"skipped":   skipped,
		"errors":    failed,
		"elapsed":   elapsed,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
