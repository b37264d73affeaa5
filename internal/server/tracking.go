package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/repositories"
	"github.com/desertthunder/farewatch/internal/shared"
)

// TrackingHandler serves the tracking request CRUD endpoints.
type TrackingHandler struct {
	requests *repositories.TrackingRequestRepository
	prices   *repositories.PricePointRepository
	logger   *log.Logger

	// maxPerChat caps active requests per chat. Zero disables the cap.
	maxPerChat int
}

// NewTrackingHandler creates a TrackingHandler over the given repositories.
func NewTrackingHandler(requests *repositories.TrackingRequestRepository, prices *repositories.PricePointRepository, logger *log.Logger, maxPerChat int) *TrackingHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TrackingHandler{requests: requests, prices: prices, logger: logger, maxPerChat: maxPerChat}
}

// Routes returns the path patterns this handler serves.
func (h *TrackingHandler) Routes() []string {
	return []string{
		"/api/v1/tracking/requests",
		"/api/v1/tracking/requests/{id}",
		"/api/v1/tracking/requests/{id}/prices",
	}
}

// ServeHTTP dispatches tracking endpoints by method and path.
func (h *TrackingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch {
	case id == "":
		switch r.Method {
		case http.MethodPost:
			h.create(w, r)
		case http.MethodGet:
			h.list(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case r.URL.Path == fmt.Sprintf("/api/v1/tracking/requests/%s/prices", id):
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.priceHistory(w, r, id)
	default:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

// createRequestBody is the payload accepted by POST /api/v1/tracking/requests.
type createRequestBody struct {
	Origin         string   `json:"origin"`
	Destination    string   `json:"destination"`
	DepartureDate  string   `json:"departure_date"`
	ReturnDate     *string  `json:"return_date"`
	TelegramChatID int64    `json:"telegram_chat_id"`
	Threshold      *float64 `json:"threshold"`
	Currency       string   `json:"currency"`
}

func (h *TrackingHandler) create(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	departure, err := time.Parse("2006-01-02", body.DepartureDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "departure_date must be YYYY-MM-DD")
		return
	}

	var returnDate *time.Time
	if body.ReturnDate != nil && *body.ReturnDate != "" {
		ret, err := time.Parse("2006-01-02", *body.ReturnDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "return_date must be YYYY-MM-DD")
			return
		}
		returnDate = &ret
	}

	req := models.NewTrackingRequest(body.Origin, body.Destination, departure, returnDate, body.TelegramChatID)
	if body.Threshold != nil {
		req.SetThreshold(*body.Threshold)
	}
	if body.Currency != "" {
		req.SetCurrency(body.Currency)
	}

	result := &shared.ValidationResult{}
	shared.ValidateIATACode(req.Origin(), result)
	shared.ValidateIATACode(req.Destination(), result)
	if req.Origin() == req.Destination() {
		result.Errors = append(result.Errors, "origin and destination must differ")
	}
	shared.ValidateDates(req.DepartureDate(), req.ReturnDate(), time.Now(), result)
	shared.ValidateThreshold(req.Threshold(), result)
	shared.ValidateChatID(req.TelegramChatID(), result)
	shared.ValidateCurrency(req.Currency(), result)
	if !result.Valid() {
		writeValidationError(w, result)
		return
	}

	if h.maxPerChat > 0 {
		count, err := h.requests.CountActive(req.TelegramChatID())
		if err != nil {
			h.logger.Error("failed to count active requests", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if count >= h.maxPerChat {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("active request limit of %d reached", h.maxPerChat))
			return
		}
	}

	if err := h.requests.Create(req); err != nil {
		if errors.Is(err, shared.ErrDuplicateRequest) {
			writeError(w, http.StatusBadRequest, "an active request already tracks this route for this chat")
			return
		}
		h.logger.Error("failed to create tracking request", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("tracking request created", "id", req.ID(), "route", req.Route(), "chat", req.TelegramChatID())
	writeJSON(w, http.StatusCreated, requestToBody(req))
}

func (h *TrackingHandler) list(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{}

	if chat := r.URL.Query().Get("telegram_chat_id"); chat != "" {
		chatID, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "telegram_chat_id must be an integer")
			return
		}
		criteria["telegram_chat_id"] = chatID
	}

	if active := r.URL.Query().Get("active"); active != "" {
		val, err := strconv.ParseBool(active)
		if err != nil {
			writeError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		criteria["active"] = val
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		val, err := strconv.Atoi(limit)
		if err != nil || val < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		criteria["limit"] = val
		if offset := r.URL.Query().Get("offset"); offset != "" {
			off, err := strconv.Atoi(offset)
			if err != nil || off < 0 {
				writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
				return
			}
			criteria["offset"] = off
		}
	}

	requests, err := h.requests.List(criteria)
	if err != nil {
		h.logger.Error("failed to list tracking requests", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	bodies := make([]trackingRequestBody, 0, len(requests))
	for _, req := range requests {
		bodies = append(bodies, requestToBody(req))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"requests": bodies,
		"count":    len(bodies),
	})
}

func (h *TrackingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	req, err := h.requests.Get(id)
	if err != nil {
		if errors.Is(err, shared.ErrRequestNotFound) {
			writeError(w, http.StatusNotFound, "tracking request not found")
			return
		}
		h.logger.Error("failed to get tracking request", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, requestToBody(req))
}

// updateRequestBody is the payload accepted by PUT. Only the threshold and
// active flag are mutable; route and dates are fixed at creation.
type updateRequestBody struct {
	Threshold *float64 `json:"threshold"`
	Active    *bool    `json:"active"`
}

func (h *TrackingHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var body updateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.requests.Get(id)
	if err != nil {
		if errors.Is(err, shared.ErrRequestNotFound) {
			writeError(w, http.StatusNotFound, "tracking request not found")
			return
		}
		h.logger.Error("failed to get tracking request", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if body.Threshold != nil {
		result := &shared.ValidationResult{}
		shared.ValidateThreshold(*body.Threshold, result)
		if !result.Valid() {
			writeValidationError(w, result)
			return
		}
		req.SetThreshold(*body.Threshold)
	}

	if body.Active != nil {
		if *body.Active && req.Expired(time.Now()) {
			writeError(w, http.StatusBadRequest, "cannot reactivate an expired request")
			return
		}
		req.SetActive(*body.Active)
	}

	if err := h.requests.Update(req); err != nil {
		h.logger.Error("failed to update tracking request", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, requestToBody(req))
}

func (h *TrackingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.requests.Delete(id); err != nil {
		if errors.Is(err, shared.ErrRequestNotFound) {
			writeError(w, http.StatusNotFound, "tracking request not found")
			return
		}
		h.logger.Error("failed to delete tracking request", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("tracking request deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TrackingHandler) priceHistory(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.requests.Get(id); err != nil {
		if errors.Is(err, shared.ErrRequestNotFound) {
			writeError(w, http.StatusNotFound, "tracking request not found")
			return
		}
		h.logger.Error("failed to get tracking request", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		val, err := strconv.Atoi(p)
		if err != nil || val < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = val
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		val, err := strconv.Atoi(l)
		if err != nil || val < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = val
	}

	points, total, err := h.prices.ListByRequest(id, page, limit)
	if err != nil {
		h.logger.Error("failed to list price history", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	bodies := make([]pricePointBody, 0, len(points))
	for _, point := range points {
		bodies = append(bodies, pricePointToBody(point))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"prices":      bodies,
		"page":        page,
		"limit":       limit,
		"total_count": total,
		"has_next":    page*limit < total,
	})
}
