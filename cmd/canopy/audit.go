//nolint:wrapcheck
package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:      "audit",
		Usage:     "Review DAG definition files",
		ArgsUsage: "[dags-dir]",
		Flags: flags(commonFlags(), scorerFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:  "dags-dir",
				Usage: "Directory holding DAG sources",
			},
			&cli.IntFlag{
				Name:  "max",
				Usage: "Maximum number of files to review (default 100)",
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if cmd.NArg() > 0 {
				cfg.Audit.DagsDir = cmd.Args().First()
			}
			orch, err := openScorer(ctx, cfg)
			if err != nil {
				return err
			}

			findings, err := newPipeline(cfg, nil, orch).Audit(ctx)
			if err != nil {
				return err
			}
			return printAll(cmd.String("format"), auditData(findings))
		},
	}
}
