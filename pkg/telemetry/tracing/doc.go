// Package tracing configures OpenTelemetry tracing for Lite.
//
// New installs a tracer provider with an OTLP gRPC or stdout exporter and
// a parent-based sampler ("always", "never" or "ratio"). The provider
// transport and the HTTP middleware start spans through the global
// provider, so nothing needs a *Tracer handle except for shutdown.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(ctx)
package tracing
