// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/desertthunder/farewatch/internal/services"
)

// StubFlightService is a test double for [services.FlightService] returning
// a scripted sequence of prices, one per call. The last price repeats once
// the script runs out.
type StubFlightService struct {
	Prices []float64
	Err    error
	calls  int
}

func (s *StubFlightService) Name() string { return "Stub" }

func (s *StubFlightService) Healthy(ctx context.Context) error { return s.Err }

func (s *StubFlightService) SearchFlights(ctx context.Context, params services.SearchParams) ([]services.FlightOffer, error) {
	quote, err := s.CurrentPrice(ctx, params)
	if err != nil {
		return nil, err
	}
	return []services.FlightOffer{{
		ID:       "stub-offer",
		Carrier:  quote.Carrier,
		Price:    quote.Price,
		Currency: quote.Currency,
	}}, nil
}

func (s *StubFlightService) CurrentPrice(ctx context.Context, params services.SearchParams) (*services.PriceQuote, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Prices) == 0 {
		return nil, errors.New("no scripted prices")
	}

	idx := s.calls
	if idx >= len(s.Prices) {
		idx = len(s.Prices) - 1
	}
	s.calls++

	return &services.PriceQuote{
		Price:     s.Prices[idx],
		Currency:  params.Currency,
		Carrier:   "ST",
		Source:    "Stub",
		CheckedAt: time.Now(),
	}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
