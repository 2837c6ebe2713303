package pipeline

import (
	"context"
	"fmt"

	"github.com/crimson-sun/canopy/internal/audit"
	"github.com/crimson-sun/canopy/internal/enrich"
	"github.com/crimson-sun/canopy/internal/extractor"
	"github.com/crimson-sun/canopy/internal/model"
	"github.com/crimson-sun/canopy/internal/output/file"
	"github.com/crimson-sun/canopy/internal/stats"
)

// ErrorReport is the output of the error analysis producer.
type ErrorReport struct {
	Analyses []model.ErrorAnalysis
	Summary  string
	Counts   enrich.ErrorSummary
}

type summaryArtifact struct {
	RunID            string              `json:"run_id"`
	ExecutiveSummary string              `json:"executive_summary"`
	Counts           enrich.ErrorSummary `json:"counts"`
}

// Stats aggregates every task log group under the configured prefix and
// writes the stats artifact. A failed group aborts the producer.
func (p *Pipeline) Stats(ctx context.Context) (map[string]model.WorkflowStats, error) {
	if err := p.requireSource(); err != nil {
		return nil, err
	}
	groups, err := extractor.TaskGroups(ctx, p.src, p.opts.GroupPrefix)
	if err != nil {
		return nil, fmt.Errorf("pipeline: stats: %w", err)
	}

	start, end := p.window(p.opts.StatsWindow)
	agg := stats.NewAggregator()
	for _, g := range groups {
		n, err := extractor.Fetch(ctx, p.src, extractor.Query{
			LogGroup:  g,
			StartMs:   start,
			EndMs:     end,
			MaxEvents: p.opts.StatsMaxEvents,
		}, func(ev model.LogEvent) error {
			agg.Add(ev)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("pipeline: stats: %w", err)
		}
		p.log.Info("group aggregated", "group", g, "events", n)
	}

	snap := agg.Snapshot()
	if err := p.write(StatsFile, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Errors extracts ERROR lines from the configured group, enriches at most
// MaxErrors of them and writes the analysis and summary artifacts.
func (p *Pipeline) Errors(ctx context.Context) (*ErrorReport, error) {
	if err := p.requireSource(); err != nil {
		return nil, err
	}
	if p.opts.Group == "" {
		return nil, fmt.Errorf("pipeline: errors: %w", ErrNoLogGroup)
	}
	start, end := p.window(p.opts.ErrorWindow)
	errs, err := extractor.New(p.src, nil).Extract(ctx, extractor.Query{
		LogGroup:  p.opts.Group,
		StartMs:   start,
		EndMs:     end,
		MaxEvents: p.opts.ErrorMaxEvents,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: errors: %w", err)
	}
	if p.opts.Journal {
		if err := p.journal(errs); err != nil {
			p.log.Warn("journal not written", "error", err)
		}
	}
	if len(errs) > p.opts.MaxErrors {
		p.log.Warn("limiting analyzed errors", "found", len(errs), "max", p.opts.MaxErrors)
		errs = errs[:p.opts.MaxErrors]
	}

	analyses := p.orch.AnalyzeErrors(ctx, errs)
	rep := &ErrorReport{
		Analyses: analyses,
		Summary:  p.orch.Summarize(ctx, analyses),
		Counts:   enrich.Count(analyses),
	}
	if err := p.write(AnalysisFile, analyses); err != nil {
		return nil, err
	}
	if err := p.write(SummaryFile, summaryArtifact{
		RunID:            p.opts.RunID,
		ExecutiveSummary: rep.Summary,
		Counts:           rep.Counts,
	}); err != nil {
		return nil, err
	}
	return rep, nil
}

type journalEntry struct {
	RunID string `json:"run_id"`
	model.LogError
}

func (p *Pipeline) journal(errs []model.LogError) error {
	j, err := file.OpenJournal(p.path(JournalFile), file.WithMaxSize(64<<20))
	if err != nil {
		return err
	}
	for _, e := range errs {
		if err := j.Append(journalEntry{RunID: p.opts.RunID, LogError: e}); err != nil {
			j.Close()
			return err
		}
	}
	return j.Close()
}

// Audit reviews the workflow definitions under DagsDir and writes the audit
// artifact.
func (p *Pipeline) Audit(ctx context.Context) ([]model.AuditFinding, error) {
	if p.lister == nil {
		return nil, fmt.Errorf("pipeline: audit: no file lister")
	}
	findings, err := audit.New(p.lister, p.orch, audit.WithMaxFiles(p.opts.MaxFiles)).Run(ctx, p.opts.DagsDir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: audit: %w", err)
	}
	if findings == nil {
		findings = []model.AuditFinding{}
	}
	if err := p.write(AuditFile, findings); err != nil {
		return nil, err
	}
	return findings, nil
}
