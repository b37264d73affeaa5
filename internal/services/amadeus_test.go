package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testSearchParams() SearchParams {
	return SearchParams{
		Origin:      "JFK",
		Destination: "LAX",
		Departure:   time.Now().AddDate(0, 1, 0),
		Currency:    "USD",
	}
}

func offersJSON() string {
	return `{
		"data": [
			{
				"id": "1",
				"price": {"grandTotal": "325.40", "currency": "USD"},
				"validatingAirlineCodes": ["DL"],
				"itineraries": [
					{
						"duration": "PT6H15M",
						"segments": [
							{
								"departure": {"iataCode": "JFK", "at": "2026-10-01T08:00:00"},
								"arrival": {"iataCode": "LAX", "at": "2026-10-01T11:15:00"},
								"carrierCode": "DL",
								"number": "423"
							}
						]
					}
				]
			},
			{
				"id": "2",
				"price": {"grandTotal": "289.99", "currency": "USD"},
				"validatingAirlineCodes": ["UA"],
				"itineraries": [
					{
						"duration": "PT8H40M",
						"segments": [
							{
								"departure": {"iataCode": "JFK", "at": "2026-10-01T06:00:00"},
								"arrival": {"iataCode": "ORD", "at": "2026-10-01T08:00:00"},
								"carrierCode": "UA",
								"number": "88"
							},
							{
								"departure": {"iataCode": "ORD", "at": "2026-10-01T09:30:00"},
								"arrival": {"iataCode": "LAX", "at": "2026-10-01T11:40:00"},
								"carrierCode": "UA",
								"number": "512"
							}
						]
					}
				]
			}
		]
	}`
}

func newTestAmadeus(serverURL string, client *http.Client) *AmadeusService {
	return &AmadeusService{
		baseURL:    serverURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		fallback:   NewMockFlightService(),
	}
}

func TestAmadeusSearchFlights(t *testing.T) {
	t.Run("parses offers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != amadeusOffersPath {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("originLocationCode"); got != "JFK" {
				t.Errorf("expected origin JFK, got %s", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(offersJSON()))
		}))
		defer server.Close()

		svc := newTestAmadeus(server.URL, server.Client())
		offers, err := svc.SearchFlights(context.Background(), testSearchParams())
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}

		if len(offers) != 2 {
			t.Fatalf("expected 2 offers, got %d", len(offers))
		}
		if offers[0].Carrier != "DL" {
			t.Errorf("expected carrier DL, got %s", offers[0].Carrier)
		}
		if offers[0].Price != 325.40 {
			t.Errorf("expected price 325.40, got %.2f", offers[0].Price)
		}
		if offers[1].Stops != 1 {
			t.Errorf("expected 1 stop for connecting itinerary, got %d", offers[1].Stops)
		}
	})

	t.Run("throttles consecutive requests", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(offersJSON()))
		}))
		defer server.Close()

		svc := newTestAmadeus(server.URL, server.Client())
		svc.SetRateLimit(20, 1)

		start := time.Now()
		for i := 0; i < 2; i++ {
			if _, err := svc.SearchFlights(context.Background(), testSearchParams()); err != nil {
				t.Fatalf("search %d failed: %v", i, err)
			}
		}

		// At 20 req/s with burst 1, the second call must wait ~50ms
		if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
			t.Errorf("expected the limiter to delay the second call, both done in %v", elapsed)
		}
	})

	t.Run("rate limit wait honors cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(offersJSON()))
		}))
		defer server.Close()

		svc := newTestAmadeus(server.URL, server.Client())
		svc.SetRateLimit(0.01, 1)

		ctx, cancel := context.WithCancel(context.Background())
		if _, err := svc.searchOffers(ctx, testSearchParams()); err != nil {
			t.Fatalf("first search failed: %v", err)
		}

		cancel()
		if _, err := svc.searchOffers(ctx, testSearchParams()); err == nil {
			t.Error("expected cancelled wait to fail")
		}
	})

	t.Run("falls back to mock data on API failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		svc := newTestAmadeus(server.URL, server.Client())
		offers, err := svc.SearchFlights(context.Background(), testSearchParams())
		if err != nil {
			t.Fatalf("expected mock fallback, got error: %v", err)
		}
		if len(offers) != len(mockCarriers) {
			t.Errorf("expected %d mock offers, got %d", len(mockCarriers), len(offers))
		}
	})
}

func TestAmadeusCurrentPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(offersJSON()))
	}))
	defer server.Close()

	svc := newTestAmadeus(server.URL, server.Client())
	quote, err := svc.CurrentPrice(context.Background(), testSearchParams())
	if err != nil {
		t.Fatalf("current price failed: %v", err)
	}

	if quote.Price != 289.99 {
		t.Errorf("expected lowest fare 289.99, got %.2f", quote.Price)
	}
	if quote.Carrier != "UA" {
		t.Errorf("expected carrier UA, got %s", quote.Carrier)
	}
	if quote.Source != "Amadeus" {
		t.Errorf("expected source Amadeus, got %s", quote.Source)
	}
}

func TestNewAmadeusService(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		if _, err := NewAmadeusService("", "", ""); err == nil {
			t.Error("expected error for missing credentials")
		}
	})

	t.Run("defaults base URL", func(t *testing.T) {
		svc, err := NewAmadeusService("key", "secret", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.baseURL != amadeusDefaultBaseURL {
			t.Errorf("expected default base URL, got %s", svc.baseURL)
		}
	})
}

func TestConvertOffer(t *testing.T) {
	t.Run("rejects unparseable price", func(t *testing.T) {
		raw := AmadeusOffer{Price: AmadeusPrice{Total: "abc", Currency: "USD"}}
		if _, err := convertOffer(raw); err == nil {
			t.Error("expected error for bad price")
		}
	})

	t.Run("carrier falls back to first segment", func(t *testing.T) {
		raw := AmadeusOffer{
			Price: AmadeusPrice{Total: "100.00", Currency: "USD"},
			Itineraries: []AmadeusItinerary{
				{Segments: []AmadeusSegment{{CarrierCode: "AA"}}},
			},
		}
		offer, err := convertOffer(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if offer.Carrier != "AA" {
			t.Errorf("expected carrier AA, got %s", offer.Carrier)
		}
	})
}

func TestLowestFare(t *testing.T) {
	t.Run("empty offers return ErrNoOffers", func(t *testing.T) {
		if _, err := lowestFare(nil, "test"); err == nil {
			t.Error("expected error for empty offers")
		}
	})

	t.Run("does not mutate input order", func(t *testing.T) {
		offers := []FlightOffer{
			{Price: 300, Carrier: "AA"},
			{Price: 200, Carrier: "DL"},
		}
		quote, err := lowestFare(offers, "test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if quote.Price != 200 {
			t.Errorf("expected 200, got %.2f", quote.Price)
		}
		if offers[0].Carrier != "AA" {
			t.Error("input slice order changed")
		}
	})
}
