package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogFetchRetry logs a failed attempt against an API resource that will be retried
func LogFetchRetry(l Logger, resource string, attempt, maxAttempts int, err error) {
	l.WithError(err).WarnWithFields("Retrying...", map[string]interface{}{
		"resource":     resource,
		"attempt":      attempt,
		"max_attempts": maxAttempts,
	})
}

// LogDownload logs the outcome of one record
func LogDownload(l Logger, album, fileName, path, outcome string, err error) {
	fields := map[string]interface{}{
		"album":     album,
		"file_name": fileName,
		"path":      path,
		"outcome":   outcome,
	}

	if err != nil {
		l.WithError(err).WarnWithFields("Download skipped after error", fields)
		return
	}
	l.DebugWithFields("Download finished", fields)
}

// LogAlbumSummary logs the per-album counters once an album is finished
func LogAlbumSummary(l Logger, album string, records, downloaded, skipped, failed int) {
	l.InfoWithFields("Album finished", map[string]interface{}{
		"album":      album,
		"records":    records,
		"downloaded": downloaded,
		"skipped":    skipped,
		"failed":     failed,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	l = l.WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Debug("Component started")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
