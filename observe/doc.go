// Package observe provides telemetry for tool invocations: OpenTelemetry
// tracing and metrics plus structured logging via zap. A single Observer
// owns the providers and hands out a Tracer, Meter, and Logger; Shutdown
// flushes everything.
package observe
