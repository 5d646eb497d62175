// Package transport provides the HTTP middleware chain and error rendering
// shared by the feed's HTTP surface.
//
// # Middleware
//
// Middleware wraps an http.Handler with cross-cutting behavior. Built-in
// middleware provides panic recovery, request ID assignment (X-Request-ID,
// generated with google/uuid when absent), and structured request logging
// via log/slog. Handlers annotate the request with per-request facts, such
// as the paging provider chosen, through [Annotations]; the logging
// middleware reports them.
//
// # Errors
//
// Handlers return *api.APIError values. [WriteError] maps them onto HTTP
// status codes and renders the JSON error envelope. Unsupported stream
// operations surface as not_supported errors with code
// operation_not_supported.
package transport
