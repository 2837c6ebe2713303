//nolint:wrapcheck
package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/crimson-sun/canopy/internal/config"
)

func errorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "errors",
		Usage: "Extract ERROR lines from a log group and analyze them",
		Flags: flags(commonFlags(), logsFlags(), scorerFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "Log group to read",
			},
			&cli.IntFlag{
				Name:  "hours",
				Usage: "Look-back window in hours (default 24)",
			},
			&cli.IntFlag{
				Name:  "max-events",
				Usage: "Maximum events to read (default 1000)",
			},
			&cli.IntFlag{
				Name:  "max-errors",
				Usage: "Maximum errors sent for analysis (default 200)",
			},
			&cli.BoolFlag{
				Name:  "journal",
				Usage: "Also append every extracted error to errors.ndjson",
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := load(cmd, func(c *config.Config) {
				setInt(cmd, "hours", &c.Logs.ErrorHours)
				setInt(cmd, "max-events", &c.Logs.ErrorMaxEvents)
			})
			if err != nil {
				return err
			}
			src, err := openSource(cfg)
			if err != nil {
				return err
			}
			orch, err := openScorer(ctx, cfg)
			if err != nil {
				return err
			}

			rep, err := newPipeline(cfg, src, orch).Errors(ctx)
			if err != nil {
				return err
			}
			return printAll(cmd.String("format"), errorsData(rep))
		},
	}
}
