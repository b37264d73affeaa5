package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/farewatch/internal/shared"
)

// DefaultThreshold is the notification threshold percentage applied when none is given.
const DefaultThreshold = 5.0

// DefaultCurrency is the currency code applied when none is given.
const DefaultCurrency = "USD"

// TrackingRequest represents a user's request to monitor fares on a route.
//
// A request stays active until its departure day ends or the user pauses it.
// The first observed price becomes the baseline; subsequent prices are
// compared against the current price using the request's threshold.
type TrackingRequest struct {
	id             string
	sequence       int
	origin         string
	destination    string
	departureDate  time.Time
	returnDate     *time.Time
	telegramChatID int64
	baselinePrice  *float64
	currentPrice   *float64
	threshold      float64
	currency       string
	active         bool
	expiresAt      time.Time
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

// NewTrackingRequest creates an active TrackingRequest with defaults applied.
// Expiry is set to the end of the departure day.
func NewTrackingRequest(origin, destination string, departure time.Time, returnDate *time.Time, chatID int64) *TrackingRequest {
	now := time.Now()
	return &TrackingRequest{
		origin:         origin,
		destination:    destination,
		departureDate:  departure,
		returnDate:     returnDate,
		telegramChatID: chatID,
		threshold:      DefaultThreshold,
		currency:       DefaultCurrency,
		active:         true,
		expiresAt:      shared.EndOfDay(departure),
		createdAt:      now,
		updatedAt:      now,
	}
}

func (t *TrackingRequest) ID() string            { return t.id }
func (t *TrackingRequest) Sequence() int         { return t.sequence }
func (t *TrackingRequest) Origin() string        { return t.origin }
func (t *TrackingRequest) Destination() string   { return t.destination }
func (t *TrackingRequest) DepartureDate() time.Time { return t.departureDate }
func (t *TrackingRequest) ReturnDate() *time.Time   { return t.returnDate }
func (t *TrackingRequest) TelegramChatID() int64    { return t.telegramChatID }
func (t *TrackingRequest) BaselinePrice() *float64  { return t.baselinePrice }
func (t *TrackingRequest) CurrentPrice() *float64   { return t.currentPrice }
func (t *TrackingRequest) Threshold() float64       { return t.threshold }
func (t *TrackingRequest) Currency() string         { return t.currency }
func (t *TrackingRequest) Active() bool             { return t.active }
func (t *TrackingRequest) ExpiresAt() time.Time     { return t.expiresAt }
func (t *TrackingRequest) CreatedAt() time.Time     { return t.createdAt }
func (t *TrackingRequest) UpdatedAt() time.Time     { return t.updatedAt }
func (t *TrackingRequest) DeletedAt() *time.Time    { return t.deletedAt }

func (t *TrackingRequest) SetID(id string)                { t.id = id }
func (t *TrackingRequest) SetSequence(seq int)            { t.sequence = seq }
func (t *TrackingRequest) SetBaselinePrice(p *float64)    { t.baselinePrice = p }
func (t *TrackingRequest) SetCurrentPrice(p *float64)     { t.currentPrice = p }
func (t *TrackingRequest) SetThreshold(th float64)        { t.threshold = th }
func (t *TrackingRequest) SetCurrency(c string)           { t.currency = c }
func (t *TrackingRequest) SetActive(a bool)               { t.active = a }
func (t *TrackingRequest) SetExpiresAt(at time.Time)      { t.expiresAt = at }
func (t *TrackingRequest) SetCreatedAt(at time.Time)      { t.createdAt = at }
func (t *TrackingRequest) SetUpdatedAt(at time.Time)      { t.updatedAt = at }
func (t *TrackingRequest) SetDeletedAt(at *time.Time)     { t.deletedAt = at }
func (t *TrackingRequest) SetTelegramChatID(chatID int64) { t.telegramChatID = chatID }

// Route returns the request's route as "ORG-DST".
func (t *TrackingRequest) Route() string {
	return fmt.Sprintf("%s-%s", t.origin, t.destination)
}

// Expired reports whether the request's expiry time has passed.
func (t *TrackingRequest) Expired(now time.Time) bool {
	return now.After(t.expiresAt)
}

// Validate checks the request's invariants.
func (t *TrackingRequest) Validate() error {
	result := &shared.ValidationResult{}

	shared.ValidateIATACode(t.origin, result)
	shared.ValidateIATACode(t.destination, result)
	if t.origin == t.destination {
		result.Errors = append(result.Errors, "origin and destination must differ")
	}
	shared.ValidateDates(t.departureDate, t.returnDate, time.Now(), result)
	shared.ValidateThreshold(t.threshold, result)
	shared.ValidateChatID(t.telegramChatID, result)
	shared.ValidateCurrency(t.currency, result)

	return result.Err()
}
