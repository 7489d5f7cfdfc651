// Package api exposes the bot's administrative HTTP surface.
//
// # Endpoints
//
//	GET  /health         liveness, always 200
//	GET  /health/ready   200 once a messaging transport is attached and the
//	                     database answers, else 503
//	POST /send-message   {"to": "...", "message": "..."}
//	GET  /orders         recent orders, newest first (?limit=, default 20, max 100)
//	GET  /orders/{id}    one order, 404 when absent
//
// "to" is a room ID or a customer contact the bot has heard from.
//
// # Send Results
//
//	200 {"status":"sent"}
//	200 {"status":"not_delivered","reason":"recipient unreachable"}
//	400 malformed body or missing field
//	401 missing or invalid bearer token (when auth is configured)
//	500 transport failure
//	503 transport not ready
//
// # Listeners
//
// The server listens on server.http_addr, or on port 80 of the tailnet
// when tailscale is enabled.
package api
