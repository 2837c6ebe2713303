//nolint:wrapcheck
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/crimson-sun/canopy/internal/audit"
	"github.com/crimson-sun/canopy/internal/config"
	"github.com/crimson-sun/canopy/internal/connector"
	"github.com/crimson-sun/canopy/internal/enrich"
	"github.com/crimson-sun/canopy/internal/logging"
	"github.com/crimson-sun/canopy/internal/pipeline"
	"github.com/crimson-sun/canopy/internal/scorer"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a TOML config file (default: $CANOPY_CONFIG_FILE or ~/.config/canopy.toml)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: auto, text, json",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: console, json, markdown",
			Value:   "console",
		},
		&cli.StringFlag{
			Name:  "reports",
			Usage: "Directory for report artifacts",
		},
	}
}

func logsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "provider", Usage: "Log source: cloudwatch, export"},
		&cli.StringFlag{Name: "endpoint", Usage: "Log service URL, or export directory for the export provider"},
		&cli.StringFlag{Name: "region", Usage: "Log service region"},
	}
}

func scorerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Usage: "Scoring service URL"},
		&cli.StringFlag{Name: "model", Usage: "Model name"},
		&cli.IntFlag{Name: "concurrency", Usage: "Scoring calls in flight"},
	}
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// load reads the configuration, applies flag overrides (shared ones, then
// extra) and initializes logging.
func load(cmd *cli.Command, extra ...func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	str := map[string]*string{
		"log-level":  &cfg.Logging.Level,
		"log-format": &cfg.Logging.Format,
		"reports":    &cfg.Reports.Dir,
		"provider":   &cfg.Logs.Provider,
		"endpoint":   &cfg.Logs.Endpoint,
		"region":     &cfg.Logs.Region,
		"prefix":     &cfg.Logs.GroupPrefix,
		"group":      &cfg.Logs.Group,
		"host":       &cfg.Scorer.Host,
		"model":      &cfg.Scorer.Model,
		"dags-dir":   &cfg.Audit.DagsDir,
	}
	for name, dst := range str {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}
	ints := map[string]*int64{
		"concurrency": &cfg.Scorer.Concurrency,
		"max-errors":  &cfg.Logs.MaxErrors,
		"max":         &cfg.Audit.MaxFiles,
	}
	for name, dst := range ints {
		setInt(cmd, name, dst)
	}
	if cmd.IsSet("journal") {
		cfg.Reports.Journal = cmd.Bool("journal")
	}
	for _, fn := range extra {
		fn(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Init(os.Stderr, cfg.Logging.Format, logging.ParseLevel(cfg.Logging.Level))
	return cfg, nil
}

func setInt(cmd *cli.Command, name string, dst *int64) {
	if cmd.IsSet(name) {
		*dst = int64(cmd.Int(name))
	}
}

func openSource(cfg *config.Config) (connector.Connector, error) {
	return connector.Open(cfg.Logs.Connector())
}

// openScorer returns an orchestrator after checking the service is reachable
// and serves the configured model.
func openScorer(ctx context.Context, cfg *config.Config) (*enrich.Orchestrator, error) {
	client := scorer.New(cfg.Scorer.Client())
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Available(checkCtx); err != nil {
		return nil, fmt.Errorf("scorer unavailable at %s: %w", cfg.Scorer.Host, err)
	}
	return enrich.New(client, enrich.WithConcurrency(int(cfg.Scorer.Concurrency))), nil
}

func newPipeline(cfg *config.Config, src connector.Connector, orch *enrich.Orchestrator) *pipeline.Pipeline {
	return pipeline.New(src, orch, audit.LocalLister{}, pipeline.Options{
		ReportsDir:     cfg.Reports.Dir,
		Journal:        cfg.Reports.Journal,
		GroupPrefix:    cfg.Logs.GroupPrefix,
		StatsWindow:    time.Duration(cfg.Logs.StatsHours) * time.Hour,
		StatsMaxEvents: int(cfg.Logs.StatsMaxEvents),
		Group:          cfg.Logs.Group,
		ErrorWindow:    time.Duration(cfg.Logs.ErrorHours) * time.Hour,
		ErrorMaxEvents: int(cfg.Logs.ErrorMaxEvents),
		MaxErrors:      int(cfg.Logs.MaxErrors),
		DagsDir:        cfg.Audit.DagsDir,
		MaxFiles:       int(cfg.Audit.MaxFiles),
	})
}
