package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var iataPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// knownAirports is a non-exhaustive set of common IATA codes.
// Codes outside this set still validate but produce a warning.
var knownAirports = map[string]bool{
	"JFK": true, "LAX": true, "ORD": true, "DFW": true, "DEN": true,
	"ATL": true, "SFO": true, "SEA": true, "LAS": true, "MIA": true,
	"BOS": true, "PHX": true, "IAH": true, "MCO": true, "EWR": true,
	"CLT": true, "MSP": true, "DTW": true, "PHL": true, "LGA": true,
	"LHR": true, "CDG": true, "FRA": true, "AMS": true, "MAD": true,
	"FCO": true, "MUC": true, "ZRH": true, "VIE": true, "DUB": true,
	"NRT": true, "HND": true, "ICN": true, "PVG": true, "HKG": true,
	"SIN": true, "BKK": true, "SYD": true, "MEL": true, "DXB": true,
	"DOH": true, "IST": true, "GRU": true, "MEX": true, "YYZ": true,
	"YVR": true, "DEL": true, "BOM": true, "JNB": true, "CAI": true,
}

// knownCurrencies lists the ISO 4217 codes accepted without warning.
var knownCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CAD": true,
	"AUD": true, "CHF": true, "CNY": true, "INR": true, "BRL": true,
	"MXN": true, "KRW": true, "SGD": true, "AED": true, "TRY": true,
}

const (
	// MinThreshold and MaxThreshold bound the notification threshold percentage.
	MinThreshold = 1.0
	MaxThreshold = 50.0

	// MaxChatID bounds the absolute value of a Telegram chat identifier.
	MaxChatID = int64(1_000_000_000_000)
)

// ValidationResult collects errors and warnings from validating user input.
// Warnings do not fail validation.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether validation produced no errors.
func (v *ValidationResult) Valid() bool {
	return len(v.Errors) == 0
}

// Err returns a single error summarizing all validation errors, or nil.
func (v *ValidationResult) Err() error {
	if v.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(v.Errors, "; "))
}

func (v *ValidationResult) addError(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *ValidationResult) addWarning(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// ValidateIATACode checks an airport code for the 3-letter uppercase format
// and warns when the code is not in the known set.
func ValidateIATACode(code string, v *ValidationResult) {
	if !iataPattern.MatchString(code) {
		v.addError("airport code %q must be 3 uppercase letters", code)
		return
	}
	if !knownAirports[code] {
		v.addWarning("airport code %q is not in the known airport list", code)
	}
}

// ValidateCurrency checks a currency code format and warns on unknown codes.
func ValidateCurrency(code string, v *ValidationResult) {
	if !iataPattern.MatchString(code) {
		v.addError("currency code %q must be 3 uppercase letters", code)
		return
	}
	if !knownCurrencies[code] {
		v.addWarning("currency code %q is not in the known currency list", code)
	}
}

// ValidateDates checks that departure is in the future and the return date,
// when set, falls after departure. Departures more than a year out warn.
func ValidateDates(departure time.Time, returnDate *time.Time, now time.Time, v *ValidationResult) {
	if !departure.After(now) {
		v.addError("departure date must be in the future")
	}
	if departure.After(now.AddDate(1, 0, 0)) {
		v.addWarning("departure date is more than a year away")
	}
	if returnDate != nil && !returnDate.After(departure) {
		v.addError("return date must be after the departure date")
	}
}

// ValidateThreshold checks the notification threshold percentage range.
func ValidateThreshold(threshold float64, v *ValidationResult) {
	if threshold < MinThreshold || threshold > MaxThreshold {
		v.addError("threshold %.1f%% must be between %.1f%% and %.1f%%", threshold, MinThreshold, MaxThreshold)
	}
}

// ValidateChatID checks a Telegram chat identifier.
// Group chats have negative identifiers, so only zero and out-of-range values fail.
func ValidateChatID(chatID int64, v *ValidationResult) {
	if chatID == 0 {
		v.addError("telegram chat id must be non-zero")
		return
	}
	if chatID > MaxChatID || chatID < -MaxChatID {
		v.addError("telegram chat id %d is out of range", chatID)
	}
}

// EndOfDay returns the last second of the given date in its location.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
