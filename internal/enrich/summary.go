package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/crimson-sun/canopy/internal/model"
)

const summarySystemPrompt = "You are an expert Airflow consultant. Analyze the error summary data and provide: 1. Overall assessment of the DAG health 2. Priority recommendations 3. Common patterns and systemic issues 4. Action plan for fixing errors. Be concise but insightful."

// NoErrors is the summary text when there is nothing to summarize.
const NoErrors = "No errors found to analyze."

// ErrorSummary aggregates a batch of analyses.
type ErrorSummary struct {
	TotalErrors       int            `json:"total_errors"`
	ErrorCategories   map[string]int `json:"error_categories"`
	DagsWithErrors    map[string]int `json:"dags_with_errors"`
	HighSeverityCount int            `json:"high_severity_count"`
}

// Count builds the ErrorSummary for analyses.
func Count(analyses []model.ErrorAnalysis) ErrorSummary {
	s := ErrorSummary{
		TotalErrors:     len(analyses),
		ErrorCategories: make(map[string]int),
		DagsWithErrors:  make(map[string]int),
	}
	for _, a := range analyses {
		s.ErrorCategories[a.Category]++
		s.DagsWithErrors[a.Error.Workflow]++
		if a.Severity == model.SeverityHigh {
			s.HighSeverityCount++
		}
	}
	return s
}

// Summarize asks for an executive summary of analyses. It never fails: when
// the call does, a plain rendering of the counts is returned instead.
func (o *Orchestrator) Summarize(ctx context.Context, analyses []model.ErrorAnalysis) string {
	if len(analyses) == 0 {
		return NoErrors
	}
	s := Count(analyses)
	cats, _ := json.MarshalIndent(s.ErrorCategories, "", "  ")
	dags, _ := json.MarshalIndent(s.DagsWithErrors, "", "  ")
	prompt := fmt.Sprintf("Analyze this DAG error summary:\n\nTotal Errors: %d\nHigh Severity Errors: %d\n\nError Categories:\n%s\n\nDAGs with Errors:\n%s\n\nProvide an executive summary with key insights and recommendations.",
		s.TotalErrors, s.HighSeverityCount, cats, dags)

	out, err := o.gen.Generate(ctx, prompt, summarySystemPrompt)
	if err != nil || strings.TrimSpace(out) == "" {
		slog.Warn("executive summary unavailable", "component", "enrich", "error", err)
		return s.String()
	}
	return out
}

// String renders the counts as plain text, largest categories first.
func (s ErrorSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors analyzed, %d high severity.\n", s.TotalErrors, s.HighSeverityCount)
	writeCounts(&b, "Categories", s.ErrorCategories)
	writeCounts(&b, "DAGs", s.DagsWithErrors)
	return strings.TrimSuffix(b.String(), "\n")
}

func writeCounts(b *strings.Builder, title string, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	fmt.Fprintf(b, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "  - %s: %d\n", k, m[k])
	}
}
