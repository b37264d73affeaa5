package models

import (
	"fmt"
	"time"
)

// PricePoint represents a single observed fare for a tracking request.
type PricePoint struct {
	id                string
	sequence          int
	trackingRequestID string
	price             float64
	currency          string
	sourceData        string
	bookingURL        string
	checkedAt         time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

// NewPricePoint creates a PricePoint observed now for the given request.
func NewPricePoint(requestID string, price float64, currency string) *PricePoint {
	now := time.Now()
	return &PricePoint{
		trackingRequestID: requestID,
		price:             price,
		currency:          currency,
		checkedAt:         now,
		createdAt:         now,
		updatedAt:         now,
	}
}

func (p *PricePoint) ID() string                { return p.id }
func (p *PricePoint) Sequence() int             { return p.sequence }
func (p *PricePoint) TrackingRequestID() string { return p.trackingRequestID }
func (p *PricePoint) Price() float64            { return p.price }
func (p *PricePoint) Currency() string          { return p.currency }
func (p *PricePoint) SourceData() string        { return p.sourceData }
func (p *PricePoint) BookingURL() string        { return p.bookingURL }
func (p *PricePoint) CheckedAt() time.Time      { return p.checkedAt }
func (p *PricePoint) CreatedAt() time.Time      { return p.createdAt }
func (p *PricePoint) UpdatedAt() time.Time      { return p.updatedAt }

func (p *PricePoint) SetID(id string)            { p.id = id }
func (p *PricePoint) SetSequence(seq int)        { p.sequence = seq }
func (p *PricePoint) SetSourceData(data string)  { p.sourceData = data }
func (p *PricePoint) SetBookingURL(url string)   { p.bookingURL = url }
func (p *PricePoint) SetCheckedAt(at time.Time)  { p.checkedAt = at }
func (p *PricePoint) SetCreatedAt(at time.Time)  { p.createdAt = at }
func (p *PricePoint) SetUpdatedAt(at time.Time)  { p.updatedAt = at }

// Validate checks the price point's invariants.
func (p *PricePoint) Validate() error {
	if p.trackingRequestID == "" {
		return fmt.Errorf("price point requires a tracking request id")
	}
	if p.price <= 0 {
		return fmt.Errorf("price must be positive, got %.2f", p.price)
	}
	if p.currency == "" {
		return fmt.Errorf("price point requires a currency")
	}
	if p.checkedAt.After(time.Now().Add(time.Minute)) {
		return fmt.Errorf("checked_at cannot be in the future")
	}
	return nil
}
