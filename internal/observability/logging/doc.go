// Package logging provides structured logging utilities with context
// propagation.
//
// It wraps the standard library's log/slog package with helper functions for
// the logging patterns used throughout the worker: JSON output in
// production, text output for local runs, and carrying a logger through a
// context so queue handlers inherit the fields of their surrounding
// operation.
package logging
