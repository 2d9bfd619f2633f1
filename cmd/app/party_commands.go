package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/ocpi/cmd/app/commands"
	"github.com/allisson/ocpi/internal/app"
	"github.com/allisson/ocpi/internal/commandlog"
	"github.com/allisson/ocpi/internal/config"
	partyUseCase "github.com/allisson/ocpi/internal/party/usecase"
)

// cliUserID is recorded as the user of every command written from the CLI.
const cliUserID = "cli"

// withRegistry restores state and hands the registry to fn.
func withRegistry(
	ctx context.Context,
	fn func(ctx context.Context, container *app.Container, registry partyUseCase.Registry) error,
) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	defer func() { _ = container.Shutdown(ctx) }()

	if err := container.Restore(ctx); err != nil {
		return err
	}
	registry, err := container.RemotePartyRegistry()
	if err != nil {
		return err
	}
	return fn(commandlog.WithUserID(ctx, cliUserID), container, registry)
}

func getPartyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "list-remote-parties",
			Usage: "List registered remote parties",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "token",
					Aliases: []string{"t"},
					Usage:   "Only list parties accepting this access token",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withRegistry(ctx, func(_ context.Context, _ *app.Container, registry partyUseCase.Registry) error {
					return commands.RunListRemoteParties(
						registry,
						commands.DefaultIO().Writer,
						cmd.String("token"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "add-remote-party",
			Usage: "Register a remote party with one local credential",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Party id as COUNTRY-PARTY (e.g., DE-GEF)",
				},
				&cli.StringFlag{
					Name:     "token",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Access token the party presents to this node",
				},
				&cli.StringFlag{
					Name:  "token-status",
					Value: "ALLOWED",
					Usage: "Status of the local access token: ALLOWED or BLOCKED",
				},
				&cli.StringFlag{
					Name:  "totp-secret",
					Usage: "Optional TOTP shared secret required next to the token",
				},
				&cli.StringFlag{
					Name:  "versions-url",
					Usage: "Versions endpoint of the party (adds a remote credential)",
				},
				&cli.StringFlag{
					Name:  "remote-token",
					Usage: "Access token this node presents to the party",
				},
				&cli.StringFlag{
					Name:  "status",
					Value: "ENABLED",
					Usage: "Party status: ENABLED or DISABLED",
				},
				&cli.BoolFlag{
					Name:  "if-not-exists",
					Usage: "Do nothing instead of failing when the id is taken",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withRegistry(ctx, func(ctx context.Context, container *app.Container, registry partyUseCase.Registry) error {
					return commands.RunAddRemoteParty(
						ctx,
						registry,
						container.Logger(),
						commands.DefaultIO().Writer,
						commands.AddRemotePartyOptions{
							ID:          cmd.String("id"),
							Token:       cmd.String("token"),
							TokenStatus: cmd.String("token-status"),
							TOTPSecret:  cmd.String("totp-secret"),
							VersionsURL: cmd.String("versions-url"),
							RemoteToken: cmd.String("remote-token"),
							Status:      cmd.String("status"),
							IfNotExists: cmd.Bool("if-not-exists"),
						},
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "remove-remote-party",
			Usage: "Remove one remote party, or all of them",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Usage:   "Party id to remove",
				},
				&cli.BoolFlag{
					Name:  "all",
					Usage: "Remove every remote party",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withRegistry(ctx, func(ctx context.Context, container *app.Container, registry partyUseCase.Registry) error {
					return commands.RunRemoveRemoteParty(
						ctx,
						registry,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("id"),
						cmd.Bool("all"),
						cmd.String("format"),
					)
				})
			},
		},
	}
}
