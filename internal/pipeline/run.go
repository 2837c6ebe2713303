package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/canopy/internal/merge"
	"github.com/crimson-sun/canopy/internal/model"
)

// Stage statuses recorded in the manifest.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Stage records the outcome of one step of a run.
type Stage struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Items      int    `json:"items"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Manifest describes a completed run.
type Manifest struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Stages     []Stage   `json:"stages"`
}

// Datasets are the inputs of the merge stage.
type Datasets struct {
	Stats    map[string]*model.WorkflowStats
	Audits   map[string]*model.AuditFinding
	Analyses map[string][]model.ErrorAnalysis
}

// LoadDatasets reads the three producer artifacts from the reports
// directory. Missing or malformed artifacts load as empty datasets.
func (p *Pipeline) LoadDatasets() Datasets {
	return Datasets{
		Stats:    merge.LoadStats(p.path(StatsFile)),
		Audits:   merge.LoadAudit(p.path(AuditFile)),
		Analyses: merge.LoadAnalyses(p.path(AnalysisFile)),
	}
}

// Merge joins the datasets, assesses every workflow and writes the dashboard
// both as DashboardFile and as a dated copy under DailyDir.
func (p *Pipeline) Merge(ctx context.Context, d Datasets) (model.Dashboard, error) {
	merged := merge.Merge(d.Stats, d.Audits, d.Analyses)
	if len(merged) == 0 {
		p.log.Warn("no workflow data found")
	}
	dash := merge.Build(ctx, p.orch, merged)

	daily := filepath.Join(DailyDir, fmt.Sprintf("dashboard_%s.json", p.now().Format("2006-01-02")))
	var errs []error
	for _, name := range []string{DashboardFile, daily} {
		if err := p.write(name, dash); err != nil {
			errs = append(errs, err)
		}
	}
	return dash, errors.Join(errs...)
}

// Run executes the three producers concurrently, then merges whatever they
// produced. A failed producer contributes an empty dataset; the dashboard
// and the manifest are always written. The returned error joins every stage
// failure.
func (p *Pipeline) Run(ctx context.Context) (*Manifest, error) {
	m := &Manifest{RunID: p.opts.RunID, StartedAt: p.now().UTC()}
	p.log.Info("run started")

	// Each producer fills its own dataset field and stage slot.
	data := Datasets{
		Stats:    map[string]*model.WorkflowStats{},
		Audits:   map[string]*model.AuditFinding{},
		Analyses: map[string][]model.ErrorAnalysis{},
	}
	stages := make([]Stage, 3)

	var g errgroup.Group
	g.Go(func() error {
		stages[0] = p.stage("audit", func() (int, error) {
			findings, err := p.Audit(ctx)
			if err != nil {
				return 0, err
			}
			for i := range findings {
				data.Audits[findings[i].Workflow] = &findings[i]
			}
			return len(findings), nil
		})
		return stageErr(stages[0])
	})
	g.Go(func() error {
		stages[1] = p.stage("stats", func() (int, error) {
			snap, err := p.Stats(ctx)
			if err != nil {
				return 0, err
			}
			for id, st := range snap {
				data.Stats[id] = &st
			}
			return len(snap), nil
		})
		return stageErr(stages[1])
	})
	g.Go(func() error {
		stages[2] = p.stage("errors", func() (int, error) {
			rep, err := p.Errors(ctx)
			if err != nil {
				return 0, err
			}
			data.Analyses = merge.GroupAnalyses(rep.Analyses)
			return len(rep.Analyses), nil
		})
		return stageErr(stages[2])
	})
	// Stage errors are collected from the manifest below.
	_ = g.Wait()

	mergeStage := p.stage("merge", func() (int, error) {
		dash, err := p.Merge(ctx, data)
		return len(dash), err
	})
	m.Stages = append(stages, mergeStage)
	m.FinishedAt = p.now().UTC()

	var errs []error
	for _, s := range m.Stages {
		if s.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %s", s.Name, s.Error))
		}
	}
	if err := p.write(ManifestFile, m); err != nil {
		errs = append(errs, err)
	}
	p.log.Info("run finished", "failed_stages", len(errs))
	return m, errors.Join(errs...)
}

// stage times fn and records its outcome.
func (p *Pipeline) stage(name string, fn func() (int, error)) Stage {
	start := time.Now()
	n, err := fn()
	s := Stage{Name: name, Status: StatusOK, Items: n, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		s.Status = StatusFailed
		s.Error = err.Error()
		p.log.Error("stage failed", "stage", name, "error", err)
	} else {
		p.log.Info("stage complete", "stage", name, "items", n, "duration_ms", s.DurationMs)
	}
	return s
}

func stageErr(s Stage) error {
	if s.Status == StatusFailed {
		return errors.New(s.Error)
	}
	return nil
}
