package server

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/farewatch/internal/repositories"
	"github.com/desertthunder/farewatch/internal/services"
	"github.com/desertthunder/farewatch/internal/shared"
)

// HealthHandler reports the readiness of the service and its dependencies.
type HealthHandler struct {
	db       *sql.DB
	requests *repositories.TrackingRequestRepository
	flights  services.FlightService
	notifier services.Notifier
	logger   *log.Logger
}

// NewHealthHandler creates a HealthHandler probing the given dependencies.
func NewHealthHandler(db *sql.DB, requests *repositories.TrackingRequestRepository, flights services.FlightService, notifier services.Notifier, logger *log.Logger) *HealthHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &HealthHandler{db: db, requests: requests, flights: flights, notifier: notifier, logger: logger}
}

// Routes returns the path patterns this handler serves.
func (h *HealthHandler) Routes() []string {
	return []string{"/api/v1/health"}
}

// ServeHTTP reports component statuses and an overall verdict.
//
// The database failing makes the service unhealthy; a degraded flight or
// notification provider downgrades the verdict without failing the probe.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	components := map[string]string{}
	healthy := true
	degraded := false

	if err := h.db.PingContext(ctx); err != nil {
		components["database"] = "unhealthy"
		healthy = false
	} else {
		components["database"] = "healthy"
	}

	if h.flights != nil {
		if err := h.flights.Healthy(ctx); err != nil {
			components["flights"] = "degraded"
			degraded = true
		} else {
			components["flights"] = "healthy"
		}
	}

	if h.notifier != nil {
		if err := h.notifier.Healthy(ctx); err != nil {
			components["notifier"] = "degraded"
			degraded = true
		} else {
			components["notifier"] = "healthy"
		}
	}

	activeCount := 0
	if healthy && h.requests != nil {
		active, err := h.requests.ListActive(time.Now())
		if err != nil {
			h.logger.Error("failed to count active requests", "error", err)
		} else {
			activeCount = len(active)
		}
	}

	status := "healthy"
	code := http.StatusOK
	switch {
	case !healthy:
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	case degraded:
		status = "degraded"
	}

	writeJSON(w, code, map[string]any{
		"status":          status,
		"components":      components,
		"active_requests": activeCount,
		"checked_at":      time.Now().Format(wireTimeLayout),
	})
}
