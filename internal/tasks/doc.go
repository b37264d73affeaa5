// Package tasks orchestrates price monitoring over tracking requests with real-time progress reporting.
//
// # Core Operations
//
// The [Monitor] interface defines the monitoring lifecycle:
//
//  1. [Monitor.CheckAll] : Full sweep over active requests
//     - Lists active, unexpired tracking requests
//     - Fetches the current lowest fare per route (cache-aware)
//     - Records price history and notifies on significant movement
//     - Returns sweep statistics; per-request failures never abort the sweep
//
//  2. [Monitor.CheckOne] : Single request check
//     - The first observed price becomes the baseline and announces tracking
//     - Later prices compare against the previous price; a move of at least
//       the request's threshold percent triggers a price change notification
//
//  3. [Monitor.ExpireDue] / [Monitor.WarnExpiring] / [Monitor.CleanupOld] :
//     Lifecycle passes deactivating expired requests, warning users two days
//     ahead of expiry, and hard-deleting long-inactive rows
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Scheduling
//
// [Scheduler] runs registered [Job] values on their intervals with optional
// jitter and per-run timeouts. A job whose previous run is still in progress
// is skipped rather than stacked. Stop drains in-flight runs, bounded by the
// caller's context.
//
// # Implementation
//
// [MonitorEngine] implements [Monitor] with dependencies on:
//   - [repositories.TrackingRequestRepository] : request persistence
//   - [repositories.PricePointRepository] : price history
//   - [repositories.NotificationRepository] : notification audit log and quota counts
//   - [services.FlightService] : fare source (Amadeus or mock)
//   - [services.Notifier] : Telegram delivery
//   - [services.SearchCache] : shared result cache
package tasks
