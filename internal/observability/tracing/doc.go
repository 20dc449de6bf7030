// Package tracing provides OpenTelemetry tracing integration.
//
// Delivery attempts create spans through the shared tracer so a queue task
// can be correlated with the HTTP call it triggered. The HTTP middleware
// traces requests to the operational endpoints and propagates W3C trace
// context from callers.
package tracing
