// Package server is the taskflow report server: a Gin engine behind an h2c
// handler that serves run summaries kept in a report.Store.
//
// # Middleware
//
// Applied at the handler level, outermost first (server/middleware):
//
//   - Recovery: panic to 500 with the standard error body
//   - RequestID: X-Request-Id generation and propagation
//   - CORS: browser access for dashboards
//   - BodySizeLimit: request body cap
//   - RequestLogger: one log entry per request
//
// Telemetry (spans and request metrics) runs inside Gin so it can label
// requests by route template.
//
// # Endpoints
//
// Registered by RegisterDefaultEndpoints and RegisterRunEndpoints
// (server/endpoint):
//
//   - GET /health, GET /alive, GET /version
//   - GET /api/v1/runs, GET /api/v1/runs/:id, GET /api/v1/runs/:id/tasks/*name
//   - POST /api/v1/runs when a trigger is configured
//   - GET /api/v1/events[?run=<id>]: run progress as Server-Sent Events
package server
