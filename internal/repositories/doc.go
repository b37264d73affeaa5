// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
//
// Key Implementations:
//   - [TrackingRequestRepository] : Tracking request persistence with soft deletes, duplicate detection, and expiry bookkeeping
//   - [PricePointRepository] : Append-only price history with paginated per-request queries
//   - [NotificationRepository] : Notification audit log with delivery status updates and quota counting
//
// Sequence numbers provide stable, human-readable ordering (e.g., request #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
