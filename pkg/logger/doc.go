// Package logger provides the structured logging interface used across imagegrab.
//
// It wraps zerolog behind a small Logger interface so that components can be
// handed a logger (or a no-op / capturing logger in tests) instead of reaching
// for a package global. A global instance is still available for the CLI:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("keyword", "lighthouse").Info("Searching")
//
// Console output is used when no log file is configured; with a file, JSON
// lines are appended to it and warnings and errors are echoed to stderr.
package logger
