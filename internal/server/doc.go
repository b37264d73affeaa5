// Package server provides HTTP routing, middleware, and handlers for the
// tracking API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handlers
//
// [TrackingHandler] serves the tracking request CRUD endpoints under
// /api/v1/tracking/requests, including paginated price history.
//
// [FlightsHandler] serves ad-hoc flight search and current price lookups,
// backed by whichever [services.FlightService] the process was started with.
//
// [HealthHandler] probes the database and the external providers and reports
// an overall healthy, degraded, or unhealthy verdict.
//
// # Middleware
//
// [RequestLogger] logs every request. [CORS] handles cross-origin headers for
// the configured origins. [RateLimiter] applies a per-client token bucket,
// keyed by X-User-ID, then X-Forwarded-For, then the remote address; health
// and metrics probes are exempt. [Recover] converts handler panics into 500
// responses. [Metrics] instruments requests with Prometheus counters and
// latency histograms, served at /metrics.
package server
