// Package pipeline runs the producers (stats, error analysis, audit) and the
// merge stage, writing every artifact under one reports directory.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/canopy/internal/audit"
	"github.com/crimson-sun/canopy/internal/connector"
	"github.com/crimson-sun/canopy/internal/enrich"
	"github.com/crimson-sun/canopy/internal/extractor"
	"github.com/crimson-sun/canopy/internal/output/file"
)

// Artifact file names, relative to the reports directory.
const (
	StatsFile     = "dag_stats.json"
	AuditFile     = "dag_ai_audit.json"
	AnalysisFile  = "log_analysis.json"
	SummaryFile   = "log_summary.json"
	DashboardFile = "dashboard.json"
	DailyDir      = "daily"
	ManifestFile  = "run.json"
	JournalFile   = "errors.ndjson"
)

var (
	// ErrNoLogGroup is returned by Errors when no log group is configured.
	ErrNoLogGroup = errors.New("no log group configured")
	// ErrNoSource is returned by stages that read logs when none is wired.
	ErrNoSource = errors.New("no log source")
)

// Options controls what the producers read and where artifacts go.
type Options struct {
	RunID      string
	ReportsDir string
	Journal    bool

	GroupPrefix    string
	StatsWindow    time.Duration
	StatsMaxEvents int

	Group          string
	ErrorWindow    time.Duration
	ErrorMaxEvents int
	MaxErrors      int

	DagsDir  string
	MaxFiles int
}

// Pipeline wires the collaborators of a run. Any of them may be nil when the
// stages that need it are not used.
type Pipeline struct {
	src    connector.Connector
	orch   *enrich.Orchestrator
	lister audit.Lister
	opts   Options
	log    *slog.Logger
	now    func() time.Time
}

// New creates a Pipeline. An empty RunID gets a fresh UUID.
func New(src connector.Connector, orch *enrich.Orchestrator, lister audit.Lister, opts Options) *Pipeline {
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	if opts.ReportsDir == "" {
		opts.ReportsDir = "reports"
	}
	if opts.StatsWindow <= 0 {
		opts.StatsWindow = 48 * time.Hour
	}
	if opts.ErrorWindow <= 0 {
		opts.ErrorWindow = extractor.DefaultWindow
	}
	if opts.StatsMaxEvents <= 0 {
		opts.StatsMaxEvents = 20000
	}
	if opts.ErrorMaxEvents <= 0 {
		opts.ErrorMaxEvents = extractor.DefaultMaxEvents
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 200
	}
	return &Pipeline{
		src:    src,
		orch:   orch,
		lister: lister,
		opts:   opts,
		log:    slog.With("component", "pipeline", "run_id", opts.RunID),
		now:    time.Now,
	}
}

// RunID identifies this run in logs and in the manifest.
func (p *Pipeline) RunID() string { return p.opts.RunID }

func (p *Pipeline) path(name string) string {
	return filepath.Join(p.opts.ReportsDir, name)
}

func (p *Pipeline) write(name string, v any) error {
	path := p.path(name)
	if err := file.WriteJSON(path, v); err != nil {
		return err
	}
	p.log.Info("artifact written", "path", path)
	return nil
}

func (p *Pipeline) window(d time.Duration) (int64, int64) {
	end := p.now()
	return end.Add(-d).UnixMilli(), end.UnixMilli()
}

func (p *Pipeline) requireSource() error {
	if p.src == nil {
		return fmt.Errorf("pipeline: %w", ErrNoSource)
	}
	return nil
}
