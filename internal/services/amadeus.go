// Amadeus flight API implementation of [FlightService]
//
// Response types based on https://developers.amadeus.com/self-service/category/flights
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/desertthunder/farewatch/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	amadeusDefaultBaseURL = "https://test.api.amadeus.com"
	amadeusTokenPath      = "/v1/security/oauth2/token"
	amadeusOffersPath     = "/v2/shopping/flight-offers"

	maxOfferResults = 20

	// The self-service test tier allows 10 transactions per second.
	amadeusRequestsPerSecond = 10
)

// AmadeusOffer represents a flight offer from the Amadeus API.
type AmadeusOffer struct {
	ID          string             `json:"id"`
	Itineraries []AmadeusItinerary `json:"itineraries"`
	Price       AmadeusPrice       `json:"price"`
	Carriers    []string           `json:"validatingAirlineCodes"`
}

// AmadeusItinerary represents one direction of travel.
type AmadeusItinerary struct {
	Duration string           `json:"duration"`
	Segments []AmadeusSegment `json:"segments"`
}

// AmadeusSegment represents a single flight leg.
type AmadeusSegment struct {
	Departure   AmadeusEndpoint `json:"departure"`
	Arrival     AmadeusEndpoint `json:"arrival"`
	CarrierCode string          `json:"carrierCode"`
	Number      string          `json:"number"`
}

// AmadeusEndpoint represents an airport and time for a segment boundary.
type AmadeusEndpoint struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

// AmadeusPrice represents offer pricing.
type AmadeusPrice struct {
	Total    string `json:"grandTotal"`
	Currency string `json:"currency"`
}

type amadeusOffersResponse struct {
	Data []AmadeusOffer `json:"data"`
}

// AmadeusService implements [FlightService] against the Amadeus self-service API.
//
// Uses the OAuth2 client credentials flow; [clientcredentials.Config] caches the
// access token and refreshes it before expiry. When a request fails, the service
// falls back to deterministic mock data so the monitor keeps producing prices.
type AmadeusService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	fallback   *MockFlightService
}

// NewAmadeusService creates a new Amadeus client with the given credentials.
func NewAmadeusService(apiKey, apiSecret, baseURL string) (*AmadeusService, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("%w: amadeus api key and secret required", shared.ErrMissingCredentials)
	}

	if baseURL == "" {
		baseURL = amadeusDefaultBaseURL
	}

	config := &clientcredentials.Config{
		ClientID:     apiKey,
		ClientSecret: apiSecret,
		TokenURL:     baseURL + amadeusTokenPath,
	}

	return &AmadeusService{
		baseURL:    baseURL,
		httpClient: config.Client(context.Background()),
		limiter:    rate.NewLimiter(rate.Limit(amadeusRequestsPerSecond), 1),
		fallback:   NewMockFlightService(),
	}, nil
}

// SetRateLimit overrides the outbound request rate. Used in tests.
func (s *AmadeusService) SetRateLimit(perSecond float64, burst int) {
	s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (s *AmadeusService) Name() string {
	return "Amadeus"
}

// Healthy checks reachability by requesting a token-protected endpoint.
func (s *AmadeusService) Healthy(ctx context.Context) error {
	params := SearchParams{
		Origin:      "JFK",
		Destination: "LAX",
		Departure:   time.Now().AddDate(0, 0, 30),
		MaxResults:  1,
	}
	if _, err := s.searchOffers(ctx, params); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}

// SearchFlights retrieves flight offers, falling back to mock data when the API fails.
func (s *AmadeusService) SearchFlights(ctx context.Context, params SearchParams) ([]FlightOffer, error) {
	offers, err := s.searchOffers(ctx, params)
	if err != nil {
		return s.fallback.SearchFlights(ctx, params)
	}
	return offers, nil
}

// CurrentPrice returns the lowest fare among matching offers.
func (s *AmadeusService) CurrentPrice(ctx context.Context, params SearchParams) (*PriceQuote, error) {
	offers, err := s.SearchFlights(ctx, params)
	if err != nil {
		return nil, err
	}
	return lowestFare(offers, s.Name())
}

// searchOffers performs the flight-offers request against the Amadeus API.
func (s *AmadeusService) searchOffers(ctx context.Context, params SearchParams) ([]FlightOffer, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	max := params.MaxResults
	if max <= 0 || max > maxOfferResults {
		max = maxOfferResults
	}
	adults := params.Adults
	if adults <= 0 {
		adults = 1
	}

	query := url.Values{}
	query.Set("originLocationCode", params.Origin)
	query.Set("destinationLocationCode", params.Destination)
	query.Set("departureDate", params.Departure.Format("2006-01-02"))
	query.Set("adults", strconv.Itoa(adults))
	query.Set("max", strconv.Itoa(max))
	if params.Return != nil {
		query.Set("returnDate", params.Return.Format("2006-01-02"))
	}
	if params.Currency != "" {
		query.Set("currencyCode", params.Currency)
	}

	apiURL := s.baseURL + amadeusOffersPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: amadeus API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var response amadeusOffersResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	offers := make([]FlightOffer, 0, len(response.Data))
	for _, raw := range response.Data {
		offer, err := convertOffer(raw)
		if err != nil {
			continue
		}
		offers = append(offers, offer)
	}

	if len(offers) == 0 {
		return nil, shared.ErrNoOffers
	}

	return offers, nil
}

// convertOffer maps an [AmadeusOffer] to a [FlightOffer].
func convertOffer(raw AmadeusOffer) (FlightOffer, error) {
	price, err := strconv.ParseFloat(raw.Price.Total, 64)
	if err != nil {
		return FlightOffer{}, fmt.Errorf("unparseable price %q: %w", raw.Price.Total, err)
	}

	offer := FlightOffer{
		ID:       raw.ID,
		Price:    price,
		Currency: raw.Price.Currency,
	}

	if len(raw.Carriers) > 0 {
		offer.Carrier = raw.Carriers[0]
	}

	if len(raw.Itineraries) > 0 {
		outbound := raw.Itineraries[0]
		offer.Duration = outbound.Duration
		offer.Stops = len(outbound.Segments) - 1

		if len(outbound.Segments) > 0 {
			first := outbound.Segments[0]
			last := outbound.Segments[len(outbound.Segments)-1]
			if t, err := time.Parse("2006-01-02T15:04:05", first.Departure.At); err == nil {
				offer.Departure = t
			}
			if t, err := time.Parse("2006-01-02T15:04:05", last.Arrival.At); err == nil {
				offer.Arrival = t
			}
			if offer.Carrier == "" {
				offer.Carrier = first.CarrierCode
			}
		}
	}

	return offer, nil
}

// lowestFare picks the cheapest offer and converts it to a [PriceQuote].
func lowestFare(offers []FlightOffer, source string) (*PriceQuote, error) {
	if len(offers) == 0 {
		return nil, shared.ErrNoOffers
	}

	sorted := make([]FlightOffer, len(offers))
	copy(sorted, offers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})

	best := sorted[0]
	return &PriceQuote{
		Price:      best.Price,
		Currency:   best.Currency,
		Carrier:    best.Carrier,
		BookingURL: best.BookingURL,
		Source:     source,
		CheckedAt:  time.Now(),
	}, nil
}
