//nolint:wrapcheck
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/farcloser/primordium/format"

	"github.com/crimson-sun/canopy/internal/engine/compactor"
	"github.com/crimson-sun/canopy/internal/model"
	"github.com/crimson-sun/canopy/internal/pipeline"
)

func printAll(formatName string, data []*format.Data) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}
	return formatter.PrintAll(data, os.Stdout)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func statsData(snap map[string]model.WorkflowStats) []*format.Data {
	out := make([]*format.Data, 0, len(snap))
	for _, id := range sortedKeys(snap) {
		s := snap[id]
		meta := map[string]any{
			"total_runs":        s.TotalRuns,
			"success_rate":      fmt.Sprintf("%.2f%%", s.SuccessRate),
			"failures":          s.TotalFailures,
			"most_failing_task": s.MostFailingTask,
			"last_run":          runTime(s.LastRun),
		}
		if s.P95Duration != nil {
			meta["p95_duration"] = fmt.Sprintf("%.1fs", *s.P95Duration)
		}
		out = append(out, &format.Data{Object: id, Meta: meta})
	}
	return out
}

func runTime(t model.RunTime) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format(model.RunTimeLayout)
}

func errorsData(rep *pipeline.ErrorReport) []*format.Data {
	return []*format.Data{{
		Object: "errors",
		Meta: map[string]any{
			"total":         rep.Counts.TotalErrors,
			"high_severity": rep.Counts.HighSeverityCount,
			"categories":    countsMeta(rep.Counts.ErrorCategories),
			"dags":          countsMeta(rep.Counts.DagsWithErrors),
			"summary":       rep.Summary,
		},
	}}
}

func countsMeta(m map[string]int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func auditData(findings []model.AuditFinding) []*format.Data {
	out := make([]*format.Data, 0, len(findings))
	for _, f := range findings {
		meta := map[string]any{
			"file":    f.Filename,
			"risk":    f.RiskLevel,
			"summary": compactor.Clip(f.Summary, 300),
		}
		if items := f.Problems.Items(); len(items) > 0 {
			meta["problems"] = items
		} else if !f.Problems.IsZero() {
			meta["problems"] = f.Problems.Render()
		}
		if f.Error != "" {
			meta["error"] = compactor.Clip(f.Error, 300)
		}
		out = append(out, &format.Data{Object: f.Workflow, Meta: meta})
	}
	return out
}

func dashboardData(dash model.Dashboard) []*format.Data {
	out := make([]*format.Data, 0, len(dash))
	for _, id := range sortedKeys(dash) {
		e := dash[id]
		meta := map[string]any{
			"log_errors": len(e.RawData.LogErrors),
		}
		if a := e.AIAnalysis; a != nil {
			meta["priority"] = a.Priority
			if a.HealthScore != nil {
				meta["health_score"] = *a.HealthScore
			}
			if a.ExecutiveSummary != "" {
				meta["summary"] = a.ExecutiveSummary
			}
			if a.Error != "" {
				meta["error"] = a.Error
			}
		}
		out = append(out, &format.Data{Object: id, Meta: meta})
	}
	return out
}

func manifestData(m *pipeline.Manifest) []*format.Data {
	out := make([]*format.Data, 0, len(m.Stages))
	for _, s := range m.Stages {
		meta := map[string]any{
			"run_id":   m.RunID,
			"status":   s.Status,
			"items":    s.Items,
			"duration": fmt.Sprintf("%dms", s.DurationMs),
		}
		if s.Error != "" {
			meta["error"] = s.Error
		}
		out = append(out, &format.Data{Object: s.Name, Meta: meta})
	}
	return out
}
