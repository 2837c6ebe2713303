//nolint:wrapcheck
package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/crimson-sun/canopy/internal/config"
)

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Aggregate run statistics from every task log group",
		Flags: flags(commonFlags(), logsFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Log group prefix; groups ending in -Task are read",
			},
			&cli.IntFlag{
				Name:  "hours",
				Usage: "Look-back window in hours (default 48)",
			},
			&cli.IntFlag{
				Name:  "max-events",
				Usage: "Maximum events read per log group (default 20000)",
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := load(cmd, func(c *config.Config) {
				setInt(cmd, "hours", &c.Logs.StatsHours)
				setInt(cmd, "max-events", &c.Logs.StatsMaxEvents)
			})
			if err != nil {
				return err
			}
			src, err := openSource(cfg)
			if err != nil {
				return err
			}

			snap, err := newPipeline(cfg, src, nil).Stats(ctx)
			if err != nil {
				return err
			}
			return printAll(cmd.String("format"), statsData(snap))
		},
	}
}
