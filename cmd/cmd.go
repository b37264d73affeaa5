// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func idFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "id",
		Usage:    "Tracking request ID",
		Required: true,
	}
}

func routeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "origin",
			Aliases:  []string{"o"},
			Usage:    "Origin airport code (e.g. JFK)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "destination",
			Aliases:  []string{"d"},
			Usage:    "Destination airport code (e.g. LAX)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "departure",
			Usage:    "Departure date (YYYY-MM-DD)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "return",
			Usage: "Return date for round trips (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:  "currency",
			Usage: "Currency code",
			Value: "USD",
		},
	}
}

// serveCommand runs the HTTP API and background monitor.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API and price monitor",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.SetupDatabase,
	}
}

// trackCommand manages tracking requests.
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Manage flight tracking requests",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Start tracking a route",
				Flags: append(routeFlags(),
					&cli.Int64Flag{
						Name:     "chat",
						Usage:    "Telegram chat ID to notify",
						Required: true,
					},
					&cli.FloatFlag{
						Name:  "threshold",
						Usage: "Notification threshold percentage (1-50)",
					},
					configFlag(),
				),
				Action: r.TrackAdd,
			},
			{
				Name:  "list",
				Usage: "List tracking requests",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "chat",
						Usage: "Filter by Telegram chat ID",
					},
					&cli.BoolFlag{
						Name:  "active",
						Usage: "Only show active requests",
					},
					configFlag(),
				},
				Action: r.TrackList,
			},
			{
				Name:  "show",
				Usage: "Show a tracking request",
				Flags: []cli.Flag{
					idFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					configFlag(),
				},
				Action: r.TrackShow,
			},
			{
				Name:   "pause",
				Usage:  "Pause a tracking request",
				Flags:  []cli.Flag{idFlag(), configFlag()},
				Action: r.TrackSetActive(false),
			},
			{
				Name:   "resume",
				Usage:  "Resume a paused tracking request",
				Flags:  []cli.Flag{idFlag(), configFlag()},
				Action: r.TrackSetActive(true),
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete a tracking request",
				Flags:   []cli.Flag{idFlag(), configFlag()},
				Action:  r.TrackDelete,
			},
			{
				Name:  "prices",
				Usage: "Show price history for a request",
				Flags: []cli.Flag{
					idFlag(),
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Prices per page",
						Value: 20,
					},
					configFlag(),
				},
				Action: r.TrackPrices,
			},
			{
				Name:  "export",
				Usage: "Export price history to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Tracking request ID (omit with --all)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every tracking request",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown, or text",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path (defaults to the request ID)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers for --all exports",
						Value: 5,
					},
					configFlag(),
				},
				Action: r.TrackExport,
			},
		},
	}
}

// flightsCommand queries the flight provider directly.
func flightsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "flights",
		Usage: "Search flights and look up fares",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search for flight offers on a route",
				Flags: append(routeFlags(),
					&cli.IntFlag{
						Name:  "adults",
						Usage: "Number of adult passengers",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "max",
						Usage: "Maximum offers to return",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				),
				Action: r.FlightsSearch,
			},
			{
				Name:  "price",
				Usage: "Show the current lowest fare for a route",
				Flags: append(routeFlags(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				),
				Action: r.FlightsPrice,
			},
		},
	}
}

// checkCommand runs a one-off monitoring sweep.
func checkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Run one monitoring sweep over active requests",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "expire",
				Usage: "Also deactivate expired requests first",
			},
			configFlag(),
		},
		Action: r.Check,
	}
}

// tuiCommand returns the top-level TUI command for interactive fare monitoring.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"ui"},
		Usage:   "Launch the interactive terminal UI",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
