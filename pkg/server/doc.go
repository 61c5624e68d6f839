// Package server exposes the chat backend over HTTP.
//
// Routes are served by a chi router under /api: chat CRUD, message edit
// and delete, provider CRUD with masked API keys, model listing through
// the registry cache, model preferences and the selected provider/model.
// POST /api/chat streams the assistant reply as server-sent events:
//
//	data: {"delta":"Hel","finishReason":null}
//
//	data: {"delta":"lo","finishReason":"stop"}
//
//	data: [DONE]
//
// A failure after streaming has begun is sent as a final
// data: {"error":"..."} event with no [DONE] marker.
//
// Errors are JSON objects of the form {"error": "..."}. Validation
// problems map to 400, missing rows to 404, vendor failures to 502 with
// the vendor status in "status", and unsupported operations to 501.
//
// When telemetry is configured the server also serves /health, /ready,
// /version and the Prometheus endpoint, and wraps every request in a
// tracing span and a request metric labelled by route pattern.
package server
