package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/crimson-sun/canopy/internal/model"
)

const assessSystemPrompt = "You are a Senior Airflow Operations Engineer. Provide a concise, actionable JSON summary for a DAG based on its performance stats, code quality, and runtime errors. Return a valid JSON object only."

// RecentError is the condensed form of an error analysis sent for assessment.
type RecentError struct {
	Severity string `json:"severity"`
	Error    string `json:"error"`
}

// Summary is the per-workflow payload sent for assessment.
type Summary struct {
	PerformanceStats *model.WorkflowStats `json:"performance_stats"`
	CodeAudit        *model.AuditFinding  `json:"code_audit"`
	RecentLogErrors  []RecentError        `json:"recent_log_errors"`
}

type assessItem struct {
	workflow string
	summary  Summary
}

// AssessWorkflows produces an assessment for every key of summaries.
func (o *Orchestrator) AssessWorkflows(ctx context.Context, summaries map[string]Summary) map[string]model.Assessment {
	keys := make([]string, 0, len(summaries))
	for k := range summaries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make([]assessItem, len(keys))
	for i, k := range keys {
		items[i] = assessItem{workflow: k, summary: summaries[k]}
	}

	slog.Info("assessing workflows", "component", "enrich", "count", len(items), "concurrency", o.concurrency)
	results := Many(ctx, items, o.concurrency, o.assess, defaultAssessment)

	out := make(map[string]model.Assessment, len(items))
	for i, it := range items {
		out[it.workflow] = results[i]
	}
	return out
}

func (o *Orchestrator) assess(ctx context.Context, it assessItem) (model.Assessment, error) {
	data, err := json.MarshalIndent(it.summary, "", "  ")
	if err != nil {
		return model.Assessment{}, err
	}
	prompt := fmt.Sprintf(`Analyze the comprehensive data for the Airflow DAG '%s'.
Data: %s
Provide a final analysis as a valid JSON object with these keys:
- "executive_summary": A 2-3 sentence overview of the DAG's health, problems, and state.
- "health_score": An integer score from 0 (broken) to 100 (perfect). Consider success rate, failure count, code risk.
- "priority": Priority for attention: "CRITICAL", "HIGH", "MEDIUM", or "LOW".
- "key_recommendations": A list of 2-3 specific, actionable recommendations.
`, it.workflow, o.compact(string(data)))

	raw, err := o.gen.Generate(ctx, prompt, assessSystemPrompt)
	if err != nil {
		return model.Assessment{}, err
	}
	obj, err := ParseObject(raw)
	if err != nil {
		slog.Warn("unstructured assessment response", "component", "enrich", "dag", it.workflow, "error", err)
		return model.Assessment{
			Priority: model.PriorityMedium,
			Error:    "Failed to parse AI JSON response.",
			Raw:      raw,
		}, nil
	}
	return assessmentFromObject(obj), nil
}

func defaultAssessment(it assessItem, err error) model.Assessment {
	slog.Warn("assessment failed", "component", "enrich", "dag", it.workflow, "error", err)
	return model.Assessment{
		Priority: model.PriorityMedium,
		Error:    "Connection to scorer failed: " + err.Error(),
	}
}

func assessmentFromObject(obj map[string]any) model.Assessment {
	a := model.Assessment{
		ExecutiveSummary:   model.VariantOf(obj["executive_summary"]).Render(),
		Priority:           normalizePriority(obj["priority"]),
		KeyRecommendations: model.VariantOf(obj["key_recommendations"]),
	}
	if score, ok := healthScore(obj["health_score"]); ok {
		a.HealthScore = &score
	}
	return a
}

// healthScore accepts a number or numeric string and clamps it to [0, 100].
func healthScore(v any) (int, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		if _, err := fmt.Sscanf(x, "%g", &f); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return int(math.Round(math.Max(0, math.Min(100, f)))), true
}
