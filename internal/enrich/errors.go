package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crimson-sun/canopy/internal/model"
)

const errorSystemPrompt = `You are an expert Apache Airflow and Python developer specializing in debugging DAG errors.
Analyze the provided error and context. Your response MUST be a single, valid JSON object and nothing else.
The JSON should contain: a root cause analysis, a list of solution steps, an optional code fix, and a list of prevention tips.`

// AnalyzeErrors enriches every error. Results are aligned with the input.
func (o *Orchestrator) AnalyzeErrors(ctx context.Context, errs []model.LogError) []model.ErrorAnalysis {
	slog.Info("analyzing errors", "component", "enrich", "count", len(errs), "concurrency", o.concurrency)
	return Many(ctx, errs, o.concurrency, o.analyzeError, defaultAnalysis)
}

func (o *Orchestrator) analyzeError(ctx context.Context, e model.LogError) (model.ErrorAnalysis, error) {
	raw, err := o.gen.Generate(ctx, o.errorPrompt(e), errorSystemPrompt)
	if err != nil {
		return model.ErrorAnalysis{}, err
	}
	obj, err := ParseObject(raw)
	if err != nil || len(obj) == 0 {
		slog.Warn("unstructured analysis response", "component", "enrich", "dag", e.Workflow, "task", e.Task, "error", err)
		return fallbackAnalysis(e, raw), nil
	}
	return analysisFromObject(e, obj), nil
}

func (o *Orchestrator) errorPrompt(e model.LogError) string {
	start := max(1, e.LineNumber-2)
	var ctxLines strings.Builder
	for i, l := range e.ContextLines {
		fmt.Fprintf(&ctxLines, "Line %d: %s\n", start+i, l)
	}
	return fmt.Sprintf(`Analyze the following Airflow DAG error and provide a structured JSON response.

DAG: %s
Task: %s
Execution: %s
Error Type: %s
Error Line: %s

Context:
%s
Provide your analysis as a single, valid JSON object with ONLY the following keys:
- "category": A brief error category (e.g., "Import Error", "Database Connection").
- "severity": "HIGH", "MEDIUM", or "LOW".
- "root_cause": A concise, one-sentence explanation of the primary problem.
- "solution_steps": A list of actionable step-by-step strings to fix the issue.
- "code_fix": A small, relevant code snippet showing the fix. Use null if not applicable.
- "prevention_tips": A list of best practice strings to prevent this issue.
`, e.Workflow, e.Task, e.Run, e.ErrorType, o.compact(e.ErrorLine), o.compact(ctxLines.String()))
}

// defaultAnalysis is the result for a call that never produced output.
func defaultAnalysis(e model.LogError, err error) model.ErrorAnalysis {
	slog.Warn("error analysis failed", "component", "enrich", "dag", e.Workflow, "task", e.Task, "error", err)
	return fallbackAnalysis(e, "Error: "+err.Error())
}

func fallbackAnalysis(e model.LogError, raw string) model.ErrorAnalysis {
	return model.ErrorAnalysis{
		Error:      e,
		Category:   e.ErrorType,
		Severity:   model.SeverityMedium,
		Suggestion: "AI analysis failed to generate a structured response. Raw output:\n\n" + raw,
	}
}

func analysisFromObject(e model.LogError, obj map[string]any) model.ErrorAnalysis {
	a := model.ErrorAnalysis{
		Error:    e,
		Category: e.ErrorType,
		Severity: normalizeSeverity(obj["severity"]),
		CodeFix:  model.VariantOf(obj["code_fix"]),
	}
	if c, ok := stringField(obj, "category"); ok {
		a.Category = c
	}
	if links := model.VariantOf(obj["documentation_links"]); links.Kind() == model.VariantList {
		a.DocumentationLinks = links.Items()
	}

	var parts []string
	if rc := model.VariantOf(obj["root_cause"]); !rc.IsZero() {
		parts = append(parts, "**Root Cause:** "+rc.Render())
	}
	if steps := bullets(obj["solution_steps"]); steps != "" {
		parts = append(parts, "**Recommended Solution:**\n"+steps)
	}
	if tips := bullets(obj["prevention_tips"]); tips != "" {
		parts = append(parts, "**Prevention Tips:**\n"+tips)
	}
	if len(parts) > 0 {
		a.Suggestion = strings.Join(parts, "\n\n")
		return a
	}
	pretty, _ := json.MarshalIndent(obj, "", "  ")
	a.Suggestion = "AI analysis provided a partial response. Raw JSON:\n" + string(pretty)
	return a
}

// bullets renders a list-ish value as "  - item" lines.
func bullets(v any) string {
	switch x := model.VariantOf(v); x.Kind() {
	case model.VariantList:
		return x.Render()
	case model.VariantText:
		return "  - " + x.Render()
	case model.VariantStructured:
		return x.Render()
	default:
		return ""
	}
}
