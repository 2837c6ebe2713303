package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/crimson-sun/canopy/internal/version"

	// Register connector implementations.
	_ "github.com/crimson-sun/canopy/internal/connector/cloudwatch"
	_ "github.com/crimson-sun/canopy/internal/connector/export"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appl := &cli.Command{
		Name:    version.Name(),
		Usage:   "Workflow health reports from task logs and DAG sources",
		Version: version.Version() + " " + version.Commit(),
		Commands: []*cli.Command{
			statsCommand(),
			errorsCommand(),
			auditCommand(),
			mergeCommand(),
			runCommand(),
			classifyCommand(),
			identifyCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		slog.Error("failed to run", "error", err)
		stop()
		os.Exit(1)
	}
}
