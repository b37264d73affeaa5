package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/farewatch/internal/services"
	"github.com/desertthunder/farewatch/internal/shared"
)

// FlightsHandler serves ad-hoc flight search and price lookup endpoints.
type FlightsHandler struct {
	flights services.FlightService
	cache   *services.SearchCache
	logger  *log.Logger
}

// NewFlightsHandler creates a FlightsHandler over the given flight provider.
func NewFlightsHandler(flights services.FlightService, cache *services.SearchCache, logger *log.Logger) *FlightsHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if cache == nil {
		cache = services.NewSearchCache(0)
	}
	return &FlightsHandler{flights: flights, cache: cache, logger: logger}
}

// Routes returns the path patterns this handler serves.
func (h *FlightsHandler) Routes() []string {
	return []string{
		"/api/v1/flights/search",
		"/api/v1/flights/current-price",
	}
}

// ServeHTTP dispatches flight endpoints by path.
func (h *FlightsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch r.URL.Path {
	case "/api/v1/flights/search":
		h.search(w, r)
	case "/api/v1/flights/current-price":
		h.currentPrice(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// parseSearchParams builds SearchParams from query parameters, validating as it goes.
func parseSearchParams(r *http.Request) (services.SearchParams, *shared.ValidationResult) {
	result := &shared.ValidationResult{}
	query := r.URL.Query()

	params := services.SearchParams{
		Origin:      query.Get("origin"),
		Destination: query.Get("destination"),
		Currency:    query.Get("currency"),
		Adults:      1,
	}
	if params.Currency == "" {
		params.Currency = "USD"
	}

	shared.ValidateIATACode(params.Origin, result)
	shared.ValidateIATACode(params.Destination, result)
	if params.Origin == params.Destination {
		result.Errors = append(result.Errors, "origin and destination must differ")
	}
	shared.ValidateCurrency(params.Currency, result)

	departure, err := time.Parse("2006-01-02", query.Get("departure_date"))
	if err != nil {
		result.Errors = append(result.Errors, "departure_date must be YYYY-MM-DD")
	} else {
		params.Departure = departure
	}

	if ret := query.Get("return_date"); ret != "" {
		returnDate, err := time.Parse("2006-01-02", ret)
		if err != nil {
			result.Errors = append(result.Errors, "return_date must be YYYY-MM-DD")
		} else {
			params.Return = &returnDate
		}
	}

	if err == nil {
		shared.ValidateDates(params.Departure, params.Return, time.Now(), result)
	}

	if adults := query.Get("adults"); adults != "" {
		val, err := strconv.Atoi(adults)
		if err != nil || val < 1 || val > 9 {
			result.Errors = append(result.Errors, "adults must be between 1 and 9")
		} else {
			params.Adults = val
		}
	}

	if max := query.Get("max_results"); max != "" {
		val, err := strconv.Atoi(max)
		if err != nil || val < 1 {
			result.Errors = append(result.Errors, "max_results must be a positive integer")
		} else {
			params.MaxResults = val
		}
	}

	return params, result
}

// flightOfferBody is the wire representation of a flight offer.
type flightOfferBody struct {
	ID         string  `json:"id"`
	Carrier    string  `json:"carrier"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	Departure  string  `json:"departure"`
	Arrival    string  `json:"arrival"`
	Stops      int     `json:"stops"`
	Duration   string  `json:"duration,omitempty"`
	BookingURL string  `json:"booking_url,omitempty"`
}

func offerToBody(offer services.FlightOffer) flightOfferBody {
	return flightOfferBody{
		ID:         offer.ID,
		Carrier:    offer.Carrier,
		Price:      offer.Price,
		Currency:   offer.Currency,
		Departure:  offer.Departure.Format(wireTimeLayout),
		Arrival:    offer.Arrival.Format(wireTimeLayout),
		Stops:      offer.Stops,
		Duration:   offer.Duration,
		BookingURL: offer.BookingURL,
	}
}

func (h *FlightsHandler) search(w http.ResponseWriter, r *http.Request) {
	params, result := parseSearchParams(r)
	if !result.Valid() {
		writeValidationError(w, result)
		return
	}

	offers, cached := h.cache.Get(params)
	if !cached {
		var err error
		offers, err = h.flights.SearchFlights(r.Context(), params)
		if err != nil {
			h.logger.Error("flight search failed", "route", params.Origin+"-"+params.Destination, "error", err)
			writeError(w, http.StatusBadGateway, "flight search unavailable")
			return
		}
		h.cache.Put(params, offers)
	}

	bodies := make([]flightOfferBody, 0, len(offers))
	for _, offer := range offers {
		bodies = append(bodies, offerToBody(offer))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"offers": bodies,
		"count":  len(bodies),
		"source": h.flights.Name(),
		"cached": cached,
	})
}

func (h *FlightsHandler) currentPrice(w http.ResponseWriter, r *http.Request) {
	params, result := parseSearchParams(r)
	if !result.Valid() {
		writeValidationError(w, result)
		return
	}

	quote, err := h.flights.CurrentPrice(r.Context(), params)
	if err != nil {
		h.logger.Error("price lookup failed", "route", params.Origin+"-"+params.Destination, "error", err)
		writeError(w, http.StatusBadGateway, "price lookup unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"origin":      params.Origin,
		"destination": params.Destination,
		"price":       quote.Price,
		"currency":    quote.Currency,
		"carrier":     quote.Carrier,
		"booking_url": quote.BookingURL,
		"source":      quote.Source,
		"checked_at":  quote.CheckedAt.Format(wireTimeLayout),
	})
}
