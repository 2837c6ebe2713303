//nolint:wrapcheck
package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/crimson-sun/canopy/internal/config"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run audit, stats and error analysis, then build the dashboard",
		Flags: flags(commonFlags(), logsFlags(), scorerFlags(), []cli.Flag{
			&cli.StringFlag{Name: "prefix", Usage: "Log group prefix for stats"},
			&cli.StringFlag{Name: "group", Aliases: []string{"g"}, Usage: "Log group for error analysis"},
			&cli.StringFlag{Name: "dags-dir", Usage: "Directory holding DAG sources"},
			&cli.IntFlag{Name: "stats-hours", Usage: "Stats look-back window in hours (default 48)"},
			&cli.IntFlag{Name: "error-hours", Usage: "Error look-back window in hours (default 24)"},
			&cli.IntFlag{Name: "max-errors", Usage: "Maximum errors sent for analysis (default 200)"},
			&cli.IntFlag{Name: "max", Usage: "Maximum number of DAG files to review (default 100)"},
			&cli.BoolFlag{Name: "journal", Usage: "Also append every extracted error to errors.ndjson"},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := load(cmd, func(c *config.Config) {
				setInt(cmd, "stats-hours", &c.Logs.StatsHours)
				setInt(cmd, "error-hours", &c.Logs.ErrorHours)
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

			p := newPipeline(cfg, src, orch)
			m, runErr := p.Run(ctx)
			if err := printAll(cmd.String("format"), manifestData(m)); err != nil {
				return err
			}
			return runErr
		},
	}
}
