// Package logging assembles structured slog loggers and formatting helpers used
// across Clarion.
//
// It owns the configurable console/JSON handlers, routes file output through a
// rotating writer, and exposes context-aware helpers so job code can tag log
// lines with job IDs and phases. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
