// Package merge joins the stats, audit and error analysis datasets into one
// record per workflow and attaches a final assessment to each.
package merge

import (
	"context"
	"log/slog"
	"sort"

	"github.com/crimson-sun/canopy/internal/engine/compactor"
	"github.com/crimson-sun/canopy/internal/enrich"
	"github.com/crimson-sun/canopy/internal/model"
)

// RecentErrorLen bounds the error line carried into an assessment summary.
const RecentErrorLen = 200

// Merge returns one record for every workflow present in any dataset.
// Missing parts stay nil; LogErrors is never nil.
func Merge(
	stats map[string]*model.WorkflowStats,
	audits map[string]*model.AuditFinding,
	analyses map[string][]model.ErrorAnalysis,
) map[string]*model.MergedRecord {
	out := make(map[string]*model.MergedRecord, len(stats))
	get := func(id string) *model.MergedRecord {
		r, ok := out[id]
		if !ok {
			r = &model.MergedRecord{Workflow: id, LogErrors: []model.ErrorAnalysis{}}
			out[id] = r
		}
		return r
	}
	for id, s := range stats {
		get(id).Stats = s
	}
	for id, a := range audits {
		get(id).CodeAudit = a
	}
	for id, list := range analyses {
		r := get(id)
		r.LogErrors = append(r.LogErrors, list...)
	}
	return out
}

// Summarize condenses a record into the payload sent for assessment.
func Summarize(r *model.MergedRecord) enrich.Summary {
	recent := make([]enrich.RecentError, 0, len(r.LogErrors))
	for _, a := range r.LogErrors {
		recent = append(recent, enrich.RecentError{
			Severity: a.Severity,
			Error:    compactor.Truncate(a.Error.ErrorLine, RecentErrorLen),
		})
	}
	return enrich.Summary{
		PerformanceStats: r.Stats,
		CodeAudit:        r.CodeAudit,
		RecentLogErrors:  recent,
	}
}

// Build assesses every record except the unknown bucket, which is kept in
// the dashboard without an assessment.
func Build(ctx context.Context, orch *enrich.Orchestrator, merged map[string]*model.MergedRecord) model.Dashboard {
	summaries := make(map[string]enrich.Summary, len(merged))
	for id, r := range merged {
		if id == model.Unknown {
			continue
		}
		summaries[id] = Summarize(r)
	}

	slog.Info("building dashboard", "component", "merge", "dags", len(merged), "assessed", len(summaries))
	assessments := orch.AssessWorkflows(ctx, summaries)

	dash := make(model.Dashboard, len(merged))
	for id, r := range merged {
		entry := model.DashboardEntry{RawData: r}
		if a, ok := assessments[id]; ok {
			entry.AIAnalysis = &a
		}
		dash[id] = entry
	}
	return dash
}

// IDs returns the workflow identifiers of merged in sorted order.
func IDs(merged map[string]*model.MergedRecord) []string {
	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
