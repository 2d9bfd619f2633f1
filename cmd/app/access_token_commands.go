package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/allisson/ocpi/cmd/app/commands"
	"github.com/allisson/ocpi/internal/app"
	"github.com/allisson/ocpi/internal/commandlog"
	"github.com/allisson/ocpi/internal/config"
	"github.com/allisson/ocpi/internal/totp"
)

func getAccessTokenCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "set-access-token",
			Usage: "Allow or block an access token, or remove it from the directory",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "token",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Access token",
				},
				&cli.StringFlag{
					Name:    "status",
					Aliases: []string{"s"},
					Value:   "BLOCKED",
					Usage:   "ALLOWED or BLOCKED",
				},
				&cli.BoolFlag{
					Name:  "remove",
					Usage: "Remove the token so the default status applies again",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				if err := container.Restore(ctx); err != nil {
					return err
				}
				directory, err := container.AccessTokenDirectory()
				if err != nil {
					return err
				}

				return commands.RunSetAccessToken(
					commandlog.WithUserID(ctx, cliUserID),
					directory,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("token"),
					cmd.String("status"),
					cmd.Bool("remove"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "generate-totp",
			Usage: "Print the previous, current and next TOTP codes for a secret",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "secret",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "TOTP shared secret",
				},
				&cli.DurationFlag{
					Name:  "step",
					Value: totp.DefaultStepDuration,
					Usage: "Validity of one code (whole seconds)",
				},
				&cli.IntFlag{
					Name:  "length",
					Value: totp.DefaultCodeLength,
					Usage: "Number of characters per code",
				},
				&cli.StringFlag{
					Name:  "alphabet",
					Value: totp.DefaultAlphabet,
					Usage: "Characters codes are drawn from",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunGenerateTOTP(
					commands.DefaultIO().Writer,
					totp.Config{
						SharedSecret: cmd.String("secret"),
						StepDuration: cmd.Duration("step"),
						CodeLength:   int(cmd.Int("length")),
						Alphabet:     cmd.String("alphabet"),
					},
					time.Now(),
					cmd.String("format"),
				)
			},
		},
	}
}
