// Package logging assembles structured slog loggers and formatting helpers used
// across cadence.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so engine code automatically tags log
// lines with lesson IDs, segment IDs, stages, and correlation IDs. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
