package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/desertthunder/farewatch/internal/services"
	"github.com/desertthunder/farewatch/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var flights services.FlightService
	if config.Credentials.Amadeus.APIKey != "" && config.Credentials.Amadeus.APISecret != "" {
		svc, err := services.NewAmadeusService(
			config.Credentials.Amadeus.APIKey,
			config.Credentials.Amadeus.APISecret,
			config.Credentials.Amadeus.BaseURL,
		)
		if err != nil {
			logger.Warn("failed to initialize Amadeus, using mock flight data", "error", err)
			flights = services.NewMockFlightService()
		} else {
			flights = svc
		}
	} else {
		logger.Warn("no Amadeus credentials configured, using mock flight data")
		flights = services.NewMockFlightService()
	}

	var notifier services.Notifier
	if config.Credentials.Telegram.BotToken != "" {
		timeout := time.Duration(config.Credentials.Telegram.TimeoutSeconds) * time.Second
		svc, err := services.NewTelegramService(config.Credentials.Telegram.BotToken, timeout, config.Credentials.Telegram.MaxRetries)
		if err != nil {
			logger.Warn("failed to initialize Telegram, notifications disabled", "error", err)
			notifier = services.NewMockNotifier()
		} else {
			notifier = svc
		}
	} else {
		logger.Warn("no Telegram token configured, notifications disabled")
		notifier = services.NewMockNotifier()
	}

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Flights:  flights,
		Notifier: notifier,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "farewatch",
		Usage:    "Track flight prices and get Telegram alerts on changes",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
