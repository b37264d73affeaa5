// package services defines interfaces for external providers
//
// Amadeus flight offers, Telegram Bot API
package services

import (
	"context"
	"time"
)

// FlightService defines the interface for flight data providers that can search
// offers and quote the current lowest fare for a route.
type FlightService interface {
	// SearchFlights retrieves flight offers matching the search parameters.
	SearchFlights(ctx context.Context, params SearchParams) ([]FlightOffer, error)

	// CurrentPrice returns the lowest fare currently available for the route.
	CurrentPrice(ctx context.Context, params SearchParams) (*PriceQuote, error)

	// Healthy reports whether the provider is reachable.
	Healthy(ctx context.Context) error

	// Name returns the name of the provider (e.g., "Amadeus", "Mock")
	Name() string
}

// Notifier defines the interface for delivering messages to users.
type Notifier interface {
	// Send delivers a message to the chat and returns the provider's message id.
	Send(ctx context.Context, chatID int64, text string) (int64, error)

	// Healthy reports whether the provider is reachable.
	Healthy(ctx context.Context) error

	// Name returns the name of the provider (e.g., "Telegram", "Mock")
	Name() string
}

// SearchParams describes a flight search.
type SearchParams struct {
	Origin      string
	Destination string
	Departure   time.Time
	Return      *time.Time
	Adults      int
	Currency    string
	MaxResults  int
}

// FlightOffer represents a single priced itinerary from any provider.
type FlightOffer struct {
	ID         string
	Carrier    string
	Price      float64
	Currency   string
	Departure  time.Time
	Arrival    time.Time
	Stops      int
	Duration   string
	BookingURL string
}

// PriceQuote represents the lowest fare found for a route at a point in time.
type PriceQuote struct {
	Price      float64
	Currency   string
	Carrier    string
	BookingURL string
	Source     string
	CheckedAt  time.Time
}
