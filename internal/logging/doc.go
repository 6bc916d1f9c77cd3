// Package logging assembles structured slog loggers and attribute helpers used
// across Packwatch components.
//
// It owns the console/JSON handler construction, centralizes level and output
// plumbing, and standardizes attribute keys so the daemon, scan pipeline, and
// CLI emit log lines with the same shape. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
