// Package health serves liveness, readiness and version endpoints.
//
// Liveness (/health) only proves the process answers. Readiness (/ready)
// runs the registered checks concurrently, each under its own timeout: a
// failing critical check (storage) reports "unhealthy", a failing ordinary
// check (providers configured) reports "degraded", and either answers 503.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCritical("storage", store.Ping)
//	r.Get("/ready", checker.ReadinessHandler())
package health
