// Package api implements the hub's small read-only REST API.
//
//	GET /api/v1/health  liveness, connected client count, uptime
//	GET /api/v1/status  live broadcast settings (feed ids, schedule)
//
// All endpoints respond with Content-Type: application/json and return a JSON
// 405 for non-GET methods. Routing uses chi.
package api
