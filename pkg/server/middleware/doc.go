// Package middleware contains the HTTP middleware of the lite API server.
//
// The server applies them outermost first: Recovery, RequestID, Logging
// and CORS. Logging reads the request ID from the context, so RequestID
// must run before it.
package middleware
