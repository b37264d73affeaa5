package server

import (
	"encoding/json"
	"net/http"

	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/shared"
)

// errorBody is the JSON error envelope returned by all handlers.
type errorBody struct {
	Detail   string   `json:"detail"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// writeJSON serializes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeValidationError writes a 422 with the collected errors and warnings.
func writeValidationError(w http.ResponseWriter, result *shared.ValidationResult) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{
		Detail:   "validation failed",
		Errors:   result.Errors,
		Warnings: result.Warnings,
	})
}

// trackingRequestBody is the wire representation of a tracking request.
type trackingRequestBody struct {
	ID             string   `json:"id"`
	Origin         string   `json:"origin"`
	Destination    string   `json:"destination"`
	DepartureDate  string   `json:"departure_date"`
	ReturnDate     *string  `json:"return_date,omitempty"`
	TelegramChatID int64    `json:"telegram_chat_id"`
	BaselinePrice  *float64 `json:"baseline_price,omitempty"`
	CurrentPrice   *float64 `json:"current_price,omitempty"`
	Threshold      float64  `json:"threshold"`
	Currency       string   `json:"currency"`
	Active         bool     `json:"active"`
	ExpiresAt      string   `json:"expires_at"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

const wireTimeLayout = "2006-01-02T15:04:05Z07:00"

// requestToBody converts a model to its wire representation.
func requestToBody(req *models.TrackingRequest) trackingRequestBody {
	body := trackingRequestBody{
		ID:             req.ID(),
		Origin:         req.Origin(),
		Destination:    req.Destination(),
		DepartureDate:  req.DepartureDate().Format("2006-01-02"),
		TelegramChatID: req.TelegramChatID(),
		BaselinePrice:  req.BaselinePrice(),
		CurrentPrice:   req.CurrentPrice(),
		Threshold:      req.Threshold(),
		Currency:       req.Currency(),
		Active:         req.Active(),
		ExpiresAt:      req.ExpiresAt().Format(wireTimeLayout),
		CreatedAt:      req.CreatedAt().Format(wireTimeLayout),
		UpdatedAt:      req.UpdatedAt().Format(wireTimeLayout),
	}

	if ret := req.ReturnDate(); ret != nil {
		s := ret.Format("2006-01-02")
		body.ReturnDate = &s
	}

	return body
}

// pricePointBody is the wire representation of a price history entry.
type pricePointBody struct {
	ID         string  `json:"id"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	BookingURL string  `json:"booking_url,omitempty"`
	CheckedAt  string  `json:"checked_at"`
}

func pricePointToBody(point *models.PricePoint) pricePointBody {
	return pricePointBody{
		ID:         point.ID(),
		Price:      point.Price(),
		Currency:   point.Currency(),
		BookingURL: point.BookingURL(),
		CheckedAt:  point.CheckedAt().Format(wireTimeLayout),
	}
}
