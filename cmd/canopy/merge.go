//nolint:wrapcheck
package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:  "merge",
		Usage: "Merge the stats, audit and analysis reports into the dashboard",
		Flags: flags(commonFlags(), scorerFlags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			orch, err := openScorer(ctx, cfg)
			if err != nil {
				return err
			}

			p := newPipeline(cfg, nil, orch)
			dash, err := p.Merge(ctx, p.LoadDatasets())
			if err != nil {
				return err
			}
			return printAll(cmd.String("format"), dashboardData(dash))
		},
	}
}
