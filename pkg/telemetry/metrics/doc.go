// Package metrics exports Prometheus metrics for Lite.
//
// A single Collector owns the registry. It is passed to the provider
// transport as a providers.Observer, to the provider registry as its
// cache and stream metrics sink, to the chat service for token usage and
// cost, to the scheduler for job runs, and to the HTTP server as
// middleware. Handler serves the registry at the configured path.
//
// Model labels are capped by a CardinalityLimiter; once the cap is hit new
// models are reported as "other".
package metrics
