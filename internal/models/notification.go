package models

import (
	"fmt"
	"time"
)

// NotificationKind identifies what a notification is about.
type NotificationKind string

const (
	NotificationTrackingStarted NotificationKind = "tracking_started"
	NotificationPriceChange     NotificationKind = "price_change"
	NotificationTrackingExpired NotificationKind = "tracking_expired"
	NotificationExpiryWarning   NotificationKind = "expiry_warning"
	NotificationError           NotificationKind = "error"
)

// NotificationStatus tracks delivery state.
type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

// Notification is an audit record of a message sent (or attempted) for a tracking request.
type Notification struct {
	id                string
	sequence          int
	trackingRequestID string
	kind              NotificationKind
	status            NotificationStatus
	message           string
	oldPrice          *float64
	newPrice          *float64
	telegramMessageID *int64
	errorText         string
	retryCount        int
	sentAt            *time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

// NewNotification creates a pending Notification for the given request.
func NewNotification(requestID string, kind NotificationKind, message string) *Notification {
	now := time.Now()
	return &Notification{
		trackingRequestID: requestID,
		kind:              kind,
		status:            StatusPending,
		message:           message,
		createdAt:         now,
		updatedAt:         now,
	}
}

func (n *Notification) ID() string                  { return n.id }
func (n *Notification) Sequence() int               { return n.sequence }
func (n *Notification) TrackingRequestID() string   { return n.trackingRequestID }
func (n *Notification) Kind() NotificationKind      { return n.kind }
func (n *Notification) Status() NotificationStatus  { return n.status }
func (n *Notification) Message() string             { return n.message }
func (n *Notification) OldPrice() *float64          { return n.oldPrice }
func (n *Notification) NewPrice() *float64          { return n.newPrice }
func (n *Notification) TelegramMessageID() *int64   { return n.telegramMessageID }
func (n *Notification) ErrorText() string           { return n.errorText }
func (n *Notification) RetryCount() int             { return n.retryCount }
func (n *Notification) SentAt() *time.Time          { return n.sentAt }
func (n *Notification) CreatedAt() time.Time        { return n.createdAt }
func (n *Notification) UpdatedAt() time.Time        { return n.updatedAt }

func (n *Notification) SetID(id string)                   { n.id = id }
func (n *Notification) SetSequence(seq int)               { n.sequence = seq }
func (n *Notification) SetPrices(old, new *float64)       { n.oldPrice, n.newPrice = old, new }
func (n *Notification) SetErrorText(text string)          { n.errorText = text }
func (n *Notification) SetRetryCount(count int)           { n.retryCount = count }
func (n *Notification) SetCreatedAt(at time.Time)         { n.createdAt = at }
func (n *Notification) SetUpdatedAt(at time.Time)         { n.updatedAt = at }
func (n *Notification) SetTelegramMessageID(msgID *int64) { n.telegramMessageID = msgID }
func (n *Notification) SetSentAt(at *time.Time)           { n.sentAt = at }

// MarkSent records a successful delivery with the Telegram message id.
func (n *Notification) MarkSent(messageID int64) {
	now := time.Now()
	n.status = StatusSent
	n.telegramMessageID = &messageID
	n.sentAt = &now
	n.updatedAt = now
}

// MarkFailed records a failed delivery with the error text.
func (n *Notification) MarkFailed(err error) {
	n.status = StatusFailed
	if err != nil {
		n.errorText = err.Error()
	}
	n.updatedAt = time.Now()
}

// SetStatus sets the delivery status directly. Used when restoring from storage.
func (n *Notification) SetStatus(status NotificationStatus) { n.status = status }

// Validate checks the notification's invariants.
func (n *Notification) Validate() error {
	if n.trackingRequestID == "" {
		return fmt.Errorf("notification requires a tracking request id")
	}
	if n.message == "" {
		return fmt.Errorf("notification requires a message")
	}

	switch n.kind {
	case NotificationTrackingStarted, NotificationPriceChange, NotificationTrackingExpired, NotificationExpiryWarning, NotificationError:
	default:
		return fmt.Errorf("unknown notification kind: %q", n.kind)
	}

	switch n.status {
	case StatusPending, StatusSent, StatusFailed:
	default:
		return fmt.Errorf("unknown notification status: %q", n.status)
	}

	if n.kind == NotificationPriceChange && (n.oldPrice == nil || n.newPrice == nil) {
		return fmt.Errorf("price change notifications require old and new prices")
	}

	return nil
}
