// Package logging provides structured logging utilities for the watcher.
//
// It wraps the standard library slog package with project defaults:
// JSON output to stderr, environment-based log level configuration
// (LOG_LEVEL), module/version context injection, and source location
// tracking for debug logs.
//
// Setting the default logger:
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("watcher", version)
//
//	    // Use slog as normal
//	    slog.Info("scan complete", "distribution", "contrib", "components", 246)
//	}
//
// Supported log levels (case-insensitive): DEBUG, INFO (default),
// WARN/WARNING, ERROR.
package logging
