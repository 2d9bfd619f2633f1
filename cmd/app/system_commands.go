package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/ocpi/cmd/app/commands"
	"github.com/allisson/ocpi/internal/app"
	"github.com/allisson/ocpi/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "verify-command-log",
			Usage: "Scan command log files and report malformed lines",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "file",
					Usage: "Single file to inspect (default: every file in DATA_DIR)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				log, err := container.CommandLog()
				if err != nil {
					return err
				}

				return commands.RunVerifyCommandLog(
					log,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("file"),
					cmd.String("format"),
				)
			},
		},
	}
}
