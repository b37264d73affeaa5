package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Flight API errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTokenExpired       = fmt.Errorf("access token expired")
	ErrNoOffers           = fmt.Errorf("no flight offers found")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Notification errors
	ErrNotificationFailed = fmt.Errorf("notification delivery failed")
	ErrNotificationQuota  = fmt.Errorf("daily notification limit reached")

	// Tracking errors
	ErrRequestNotFound   = fmt.Errorf("tracking request not found")
	ErrDuplicateRequest  = fmt.Errorf("duplicate tracking request")
	ErrRequestExpired    = fmt.Errorf("tracking request expired")
	ErrRequestLimit      = fmt.Errorf("tracking request limit reached")
	ErrPriceNotAvailable = fmt.Errorf("price not available")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
