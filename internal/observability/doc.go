// Package observability provides the observability infrastructure for the
// delivery worker: structured logging, Prometheus metrics, and OpenTelemetry
// tracing.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Process-level Prometheus collectors (database pool stats)
//   - tracing: OpenTelemetry tracing integration
package observability
