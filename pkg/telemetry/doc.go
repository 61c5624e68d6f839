// Package telemetry groups Lite's observability packages.
//
//   - logging: slog-based logging with secret redaction and context fields
//   - metrics: Prometheus collector for HTTP, provider, cache and job metrics
//   - tracing: OpenTelemetry tracer with OTLP gRPC and stdout exporters
//   - health: liveness, readiness and version endpoints
//
// New builds all four from the telemetry section of the configuration.
package telemetry
