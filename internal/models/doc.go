// Package models defines domain entities and persistence interfaces for the farewatch price tracking service.
//
// Persistent entities are database-backed models with full lifecycle management:
//   - [TrackingRequest] : A user's request to monitor fares on a route
//   - [PricePoint] : A single observed fare for a tracking request
//   - [Notification] : An audit record of a Telegram message sent for a request
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support where applicable.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
