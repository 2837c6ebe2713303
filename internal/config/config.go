// Package config loads canopy settings from defaults, an optional TOML file
// and CANOPY_ environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lconfig "github.com/lixenwraith/config"

	"github.com/crimson-sun/canopy/internal/connector"
	"github.com/crimson-sun/canopy/internal/scorer"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CANOPY_"

// ErrEmpty is returned by Validate for a required setting left blank.
var ErrEmpty = errors.New("value must not be empty")

// Config holds all canopy configuration.
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Logs    LogsConfig    `toml:"logs"`
	Scorer  ScorerConfig  `toml:"scorer"`
	Audit   AuditConfig   `toml:"audit"`
	Reports ReportsConfig `toml:"reports"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	// "debug", "info", "warn", "error"
	Level string `toml:"level"`
	// "auto", "text", "json"
	Format string `toml:"format"`
}

// LogsConfig selects the log service and the query windows.
type LogsConfig struct {
	Provider       string  `toml:"provider"`
	Endpoint       string  `toml:"endpoint"`
	Token          string  `toml:"token"`
	Region         string  `toml:"region"`
	RateLimit      float64 `toml:"rate_limit"`
	TimeoutSeconds int64   `toml:"timeout_seconds"`

	// Stats run over every group named <GroupPrefix>...-Task.
	GroupPrefix    string `toml:"group_prefix"`
	StatsHours     int64  `toml:"stats_hours"`
	StatsMaxEvents int64  `toml:"stats_max_events"`

	// Error analysis reads a single group.
	Group          string `toml:"group"`
	ErrorHours     int64  `toml:"error_hours"`
	ErrorMaxEvents int64  `toml:"error_max_events"`
	MaxErrors      int64  `toml:"max_errors"`
}

// ScorerConfig points at the text generation service.
type ScorerConfig struct {
	Host           string `toml:"host"`
	Model          string `toml:"model"`
	TimeoutSeconds int64   `toml:"timeout_seconds"`
	MaxRetries     int64   `toml:"max_retries"`
	Concurrency    int64   `toml:"concurrency"`
	Temperature    float64 `toml:"temperature"`
}

// AuditConfig locates workflow definition files.
type AuditConfig struct {
	DagsDir  string `toml:"dags_dir"`
	MaxFiles int64  `toml:"max_files"`
}

// ReportsConfig places the artifacts.
type ReportsConfig struct {
	Dir string `toml:"dir"`
	// Journal appends every extracted error to errors.ndjson.
	Journal bool `toml:"journal"`
}

func defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Logs: LogsConfig{
			Provider:       "cloudwatch",
			Region:         "us-east-1",
			RateLimit:      5,
			TimeoutSeconds: 30,
			GroupPrefix:    "airflow-",
			StatsHours:     48,
			StatsMaxEvents: 20000,
			ErrorHours:     24,
			ErrorMaxEvents: 1000,
			MaxErrors:      200,
		},
		Scorer: ScorerConfig{
			Host:           "http://localhost:11434",
			Model:          "llama3.2",
			TimeoutSeconds: 120,
			MaxRetries:     2,
			Concurrency:    5,
			Temperature:    0.1,
		},
		Audit: AuditConfig{
			DagsDir:  "dags",
			MaxFiles: 100,
		},
		Reports: ReportsConfig{
			Dir: "reports",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

// Load builds the configuration. An empty path resolves through Path; a
// missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix(EnvPrefix).
		WithFile(path).
		WithEnvTransform(envTransform).
		WithSources(
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()
	if err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	final := &Config{}
	if err := cfg.Scan(final); err != nil {
		return nil, fmt.Errorf("config: scan: %w", err)
	}
	return final, final.Validate()
}

func envTransform(path string) string {
	env := strings.ReplaceAll(path, ".", "_")
	return EnvPrefix + strings.ToUpper(env)
}

// Path returns the configuration file location: CANOPY_CONFIG_FILE
// (relative to CANOPY_CONFIG_DIR when set), then CANOPY_CONFIG_DIR/canopy.toml,
// then ~/.config/canopy.toml.
func Path() string {
	if file := os.Getenv(EnvPrefix + "CONFIG_FILE"); file != "" {
		if filepath.IsAbs(file) {
			return file
		}
		if dir := os.Getenv(EnvPrefix + "CONFIG_DIR"); dir != "" {
			return filepath.Join(dir, file)
		}
		return file
	}
	if dir := os.Getenv(EnvPrefix + "CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "canopy.toml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "canopy.toml")
	}
	return "canopy.toml"
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	levels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !levels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("config: invalid log level: %s", c.Logging.Level)
	}
	formats := map[string]bool{"auto": true, "text": true, "json": true}
	if !formats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("config: invalid log format: %s", c.Logging.Format)
	}

	if err := nonEmpty(c.Logs.Provider); err != nil {
		return fmt.Errorf("config: logs.provider: %w", err)
	}
	if c.Logs.RateLimit < 0 {
		return fmt.Errorf("config: logs.rate_limit must be >= 0, got %g", c.Logs.RateLimit)
	}
	for name, v := range map[string]int64{
		"logs.stats_hours":      c.Logs.StatsHours,
		"logs.stats_max_events": c.Logs.StatsMaxEvents,
		"logs.error_hours":      c.Logs.ErrorHours,
		"logs.error_max_events": c.Logs.ErrorMaxEvents,
		"logs.max_errors":       c.Logs.MaxErrors,
		"scorer.concurrency":    c.Scorer.Concurrency,
		"audit.max_files":       c.Audit.MaxFiles,
	} {
		if v < 1 {
			return fmt.Errorf("config: %s must be positive, got %d", name, v)
		}
	}

	if err := nonEmpty(c.Scorer.Host); err != nil {
		return fmt.Errorf("config: scorer.host: %w", err)
	}
	if err := nonEmpty(c.Scorer.Model); err != nil {
		return fmt.Errorf("config: scorer.model: %w", err)
	}
	if c.Scorer.Temperature < 0 || c.Scorer.Temperature > 2 {
		return fmt.Errorf("config: scorer.temperature must be in [0, 2], got %g", c.Scorer.Temperature)
	}
	if c.Scorer.MaxRetries < 0 {
		return fmt.Errorf("config: scorer.max_retries must be >= 0, got %d", c.Scorer.MaxRetries)
	}
	if err := nonEmpty(c.Reports.Dir); err != nil {
		return fmt.Errorf("config: reports.dir: %w", err)
	}
	return nil
}

func nonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmpty
	}
	return nil
}

// Connector returns the log service settings.
func (c LogsConfig) Connector() connector.Config {
	return connector.Config{
		Provider:  c.Provider,
		Endpoint:  c.Endpoint,
		Token:     c.Token,
		Region:    c.Region,
		RateLimit: c.RateLimit,
		Timeout:   time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

// Client returns the scorer client settings.
func (c ScorerConfig) Client() scorer.Config {
	return scorer.Config{
		Host:        c.Host,
		Model:       c.Model,
		Timeout:     time.Duration(c.TimeoutSeconds) * time.Second,
		MaxRetries:  int(c.MaxRetries),
		Temperature: c.Temperature,
	}
}
