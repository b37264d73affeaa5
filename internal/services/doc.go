// Package services defines the [FlightService] and [Notifier] interfaces for external providers and implements them for Amadeus and Telegram.
//
// # Flight Data
//
// [AmadeusService] uses the OAuth2 client credentials flow via [clientcredentials.Config],
// which caches the access token and refreshes it before expiry. Offers come from the
// flight-offers search endpoint and are mapped to [FlightOffer] values.
//
// [MockFlightService] generates deterministic fares from a hash of the route and date.
// It serves two roles: the provider when no Amadeus credentials are configured, and the
// fallback when a live request fails, so the monitor always has prices to record.
//
// # Notifications
//
// [TelegramService] sends messages through the Bot API with HTML parse mode and link
// previews disabled. Sends retry with exponential backoff via [shared.WithRetry].
// [MockNotifier] swallows messages when no bot token is configured.
//
// Message text for each notification kind is built by the exported *Message functions.
//
// # Caching
//
// [SearchCache] holds search results in-process with a TTL so API handlers and the
// monitor share fresh results instead of hitting the provider repeatedly.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrMissingCredentials] : constructor called without credentials
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrNoOffers] : no offers matched the search
//   - [shared.ErrNotificationFailed] : delivery failed after retries
package services
