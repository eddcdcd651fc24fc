// Package middleware provides HTTP middleware for the lending API.
//
// # Available Middleware
//
//   - RequestID, Logger, Recovery, CORS, Compress: request plumbing
//   - Auth: bearer token validation; stores the model.Actor in context
//   - RequireAccountant: rejects non-accountant actors with 403
//   - RateLimit: per-actor or per-address limiting over a Limiter
//     (in-process token bucket or shared Redis fixed window)
//   - Idempotency: replays responses for retried POST and PATCH requests
//   - AuditLog: persists one request log entry per /v1 request
//   - Metrics: Prometheus request counts and latency
//
// # Context Values
//
//   - GetActor(ctx): the authenticated actor
//   - GetClaims(ctx): the validated token claims
//   - GetRequestID(ctx): unique request identifier
package middleware
