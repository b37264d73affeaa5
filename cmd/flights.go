package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/farewatch/internal/services"
	"github.com/desertthunder/farewatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// flightParams builds search parameters from command flags.
func flightParams(cmd *cli.Command) (services.SearchParams, error) {
	departure, err := time.Parse("2006-01-02", cmd.String("departure"))
	if err != nil {
		return services.SearchParams{}, fmt.Errorf("%w: departure must be YYYY-MM-DD", shared.ErrInvalidArgument)
	}

	params := services.SearchParams{
		Origin:      cmd.String("origin"),
		Destination: cmd.String("destination"),
		Departure:   departure,
		Adults:      cmd.Int("adults"),
		Currency:    cmd.String("currency"),
		MaxResults:  cmd.Int("max"),
	}

	if ret := cmd.String("return"); ret != "" {
		parsed, err := time.Parse("2006-01-02", ret)
		if err != nil {
			return services.SearchParams{}, fmt.Errorf("%w: return must be YYYY-MM-DD", shared.ErrInvalidArgument)
		}
		params.Return = &parsed
	}

	return params, nil
}

// FlightsSearch searches for offers on a route and prints them.
func (r *Runner) FlightsSearch(ctx context.Context, cmd *cli.Command) error {
	params, err := flightParams(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("searching flights", "route", params.Origin+"-"+params.Destination, "provider", r.flights.Name())

	offers, err := r.flights.SearchFlights(ctx, params)
	if err != nil {
		return fmt.Errorf("flight search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(offers, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s → %s on %s (%d offers)",
		params.Origin, params.Destination, params.Departure.Format("2006-01-02"), len(offers)))
	for i, offer := range offers {
		stops := "nonstop"
		if offer.Stops == 1 {
			stops = "1 stop"
		} else if offer.Stops > 1 {
			stops = fmt.Sprintf("%d stops", offer.Stops)
		}
		r.writePlain("%d. %s  %s  %s\n", i+1, offer.Carrier, shared.FormatPrice(offer.Price, offer.Currency), stops)
	}
	return nil
}

// FlightsPrice prints the current lowest fare for a route.
func (r *Runner) FlightsPrice(ctx context.Context, cmd *cli.Command) error {
	params, err := flightParams(cmd)
	if err != nil {
		return err
	}

	quote, err := r.flights.CurrentPrice(ctx, params)
	if err != nil {
		return fmt.Errorf("price lookup failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(quote, cmd.Bool("pretty"))
	}

	r.writePlain("%s → %s: %s (%s via %s)\n",
		params.Origin, params.Destination,
		shared.FormatPrice(quote.Price, quote.Currency),
		quote.Carrier, quote.Source)
	return nil
}
