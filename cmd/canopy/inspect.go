//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/crimson-sun/canopy/internal/engine"
	"github.com/crimson-sun/canopy/internal/engine/classifier"
	"github.com/crimson-sun/canopy/internal/identity"
)

var errNoArgs = errors.New("expected at least one argument")

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Print the error category of each line",
		ArgsUsage: "<line>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: console, json, markdown",
				Value:   "console",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return fmt.Errorf("%w: log line", errNoArgs)
			}
			data := make([]*format.Data, 0, cmd.NArg())
			for _, line := range cmd.Args().Slice() {
				data = append(data, &format.Data{
					Object: line,
					Meta: map[string]any{
						"category":   classifier.Classify(line),
						"error_line": engine.IsErrorLine(line),
					},
				})
			}
			return printAll(cmd.String("format"), data)
		},
	}
}

func identifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "identify",
		Usage:     "Print the workflow, task and run encoded in log stream names",
		ArgsUsage: "<stream>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: console, json, markdown",
				Value:   "console",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return fmt.Errorf("%w: stream name", errNoArgs)
			}
			data := make([]*format.Data, 0, cmd.NArg())
			for _, stream := range cmd.Args().Slice() {
				id := identity.Parse(stream)
				data = append(data, &format.Data{
					Object: stream,
					Meta: map[string]any{
						"workflow": id.Workflow,
						"task":     id.Task,
						"run":      id.Run,
						"file":     identity.FileName(stream),
					},
				})
			}
			return printAll(cmd.String("format"), data)
		},
	}
}
