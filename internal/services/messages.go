package services

import (
	"fmt"
	"time"
)

// Message builders for each notification kind. All output uses Telegram HTML
// parse mode, so dynamic values stay plain (IATA codes, numbers, ISO dates).

// TrackingStartedMessage announces that monitoring began with the baseline price.
func TrackingStartedMessage(origin, destination string, departure time.Time, price float64, currency string) string {
	return fmt.Sprintf(
		"✈️ <b>Tracking started</b>\n\n"+
			"Route: <b>%s → %s</b>\n"+
			"Departure: %s\n"+
			"Current price: <b>%.2f %s</b>\n\n"+
			"You'll be notified when the price changes significantly.",
		origin, destination, departure.Format("Jan 2, 2006"), price, currency,
	)
}

// PriceChangeMessage announces a significant fare movement.
func PriceChangeMessage(origin, destination string, oldPrice, newPrice, changePct float64, currency, bookingURL string) string {
	var headline string
	if newPrice < oldPrice {
		headline = "📉 <b>Price drop!</b>"
	} else {
		headline = "📈 <b>Price increase</b>"
	}

	msg := fmt.Sprintf(
		"%s\n\n"+
			"Route: <b>%s → %s</b>\n"+
			"Was: %.2f %s\n"+
			"Now: <b>%.2f %s</b>\n"+
			"Change: %+.1f%%",
		headline, origin, destination, oldPrice, currency, newPrice, currency, changePct,
	)

	if bookingURL != "" {
		msg += fmt.Sprintf("\n\n<a href=\"%s\">Book now</a>", bookingURL)
	}

	return msg
}

// TrackingExpiredMessage announces that a request reached its departure day.
func TrackingExpiredMessage(origin, destination string, departure time.Time) string {
	return fmt.Sprintf(
		"🛬 <b>Tracking ended</b>\n\n"+
			"Route: <b>%s → %s</b>\n"+
			"Departure date %s has passed, so monitoring stopped.\n\n"+
			"Safe travels!",
		origin, destination, departure.Format("Jan 2, 2006"),
	)
}

// ExpiryWarningMessage warns that tracking ends soon.
func ExpiryWarningMessage(origin, destination string, expiresAt time.Time) string {
	return fmt.Sprintf(
		"⏰ <b>Tracking ends soon</b>\n\n"+
			"Route: <b>%s → %s</b>\n"+
			"Monitoring stops on %s when the departure day ends.",
		origin, destination, expiresAt.Format("Jan 2, 2006"),
	)
}

// ErrorMessage reports a monitoring problem to the user.
func ErrorMessage(origin, destination string) string {
	return fmt.Sprintf(
		"⚠️ <b>Monitoring issue</b>\n\n"+
			"We couldn't fetch prices for <b>%s → %s</b> on the last check. "+
			"Monitoring continues and we'll retry on the next sweep.",
		origin, destination,
	)
}
