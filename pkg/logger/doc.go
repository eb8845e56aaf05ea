// Package logger provides the structured logging interface used across smugmirror.
//
// It wraps zerolog with a small API:
//   - Multiple log levels (Debug, Info, Warn, Error, Fatal)
//   - Structured logging with fields
//   - Colored console output, optionally mirrored to a JSON log file
//   - A global logger for command wiring and explicit loggers for components
//
// Every line carries app=smugmirror and, when configured, the run_id of the
// current mirror run.
//
// Basic Usage:
//
//	err := logger.Initialize(&logger.Config{
//	    Level: "info",
//	    File:  "/var/log/smugmirror.log",
//	    RunID: runID,
//	})
//
//	logger.WithField("album", album.Name).Info("Album started")
//
// Components receive a Logger in their constructor. Tests pass a
// TestLogger and assert on the captured messages:
//
//	log := logger.NewTestLogger()
//	fetcher := smugmug.NewFetcher(client, retryCfg, nil, log)
//	...
//	assert.Equal(t, 4, log.CountMessage("Retrying..."))
package logger
