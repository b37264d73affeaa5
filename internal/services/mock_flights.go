package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"
)

// mockCarriers are the airlines used for generated offers.
var mockCarriers = []string{"AA", "UA", "DL", "SW"}

const mockBasePrice = 300.0

// MockFlightService implements [FlightService] with deterministic generated data.
//
// Prices are derived from a hash of the route and date so repeated calls for the
// same search return stable values. Used when Amadeus credentials are absent and
// as the fallback when the live API fails.
type MockFlightService struct{}

// NewMockFlightService creates a new mock flight data provider.
func NewMockFlightService() *MockFlightService {
	return &MockFlightService{}
}

func (s *MockFlightService) Name() string {
	return "Mock"
}

// Healthy always succeeds for the mock provider.
func (s *MockFlightService) Healthy(ctx context.Context) error {
	return nil
}

// SearchFlights generates one offer per carrier for the route.
func (s *MockFlightService) SearchFlights(ctx context.Context, params SearchParams) ([]FlightOffer, error) {
	currency := params.Currency
	if currency == "" {
		currency = "USD"
	}

	base := routePrice(params.Origin, params.Destination, params.Departure)

	offers := make([]FlightOffer, 0, len(mockCarriers))
	for i, carrier := range mockCarriers {
		// Each carrier prices within ~15% of the route base
		variation := float64(carrierOffset(carrier)) / 100.0
		price := base * (1 + variation)

		departure := time.Date(
			params.Departure.Year(), params.Departure.Month(), params.Departure.Day(),
			6+i*4, 30, 0, 0, time.UTC,
		)

		offers = append(offers, FlightOffer{
			ID:        fmt.Sprintf("mock-%s-%s%s-%d", carrier, params.Origin, params.Destination, i),
			Carrier:   carrier,
			Price:     roundCents(price),
			Currency:  currency,
			Departure: departure,
			Arrival:   departure.Add(time.Duration(5+i) * time.Hour),
			Stops:     i % 2,
			Duration:  fmt.Sprintf("PT%dH", 5+i),
		})
	}

	return offers, nil
}

// CurrentPrice returns the lowest generated fare for the route.
func (s *MockFlightService) CurrentPrice(ctx context.Context, params SearchParams) (*PriceQuote, error) {
	offers, err := s.SearchFlights(ctx, params)
	if err != nil {
		return nil, err
	}
	return lowestFare(offers, s.Name())
}

// routePrice derives a stable base price from the route and departure date.
func routePrice(origin, destination string, departure time.Time) float64 {
	h := fnv.New32a()
	h.Write([]byte(origin + destination + departure.Format("2006-01-02")))
	// Spread of 0-250 over the base fare
	return mockBasePrice + float64(h.Sum32()%25000)/100.0
}

// carrierOffset derives a per-carrier price variation in the range [-15, 15).
func carrierOffset(carrier string) int {
	h := fnv.New32a()
	h.Write([]byte(carrier))
	return int(h.Sum32()%30) - 15
}

func roundCents(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
