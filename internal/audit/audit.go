// Package audit reviews workflow definition files. Each workflow declared in
// a candidate file gets one scoring call; the declared identifier is always
// the one recorded on the finding, whatever the scorer answers.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/crimson-sun/canopy/internal/engine/compactor"
	"github.com/crimson-sun/canopy/internal/enrich"
	"github.com/crimson-sun/canopy/internal/identity"
	"github.com/crimson-sun/canopy/internal/model"
)

// DefaultMaxFiles caps the number of candidate files reviewed per run.
const DefaultMaxFiles = 100

const systemPrompt = "You are an experienced code reviewer for Airflow DAGs. Be concise but accurate. Return only a valid JSON object."

// Auditor produces AuditFindings for the files a Lister returns.
type Auditor struct {
	lister    Lister
	orch      *enrich.Orchestrator
	maxFiles  int
	compactor *compactor.Compactor
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithMaxFiles caps the number of files reviewed. Values below 1 are ignored.
func WithMaxFiles(n int) Option {
	return func(a *Auditor) {
		if n > 0 {
			a.maxFiles = n
		}
	}
}

// New creates an Auditor. Scoring calls run through orch.
func New(lister Lister, orch *enrich.Orchestrator, opts ...Option) *Auditor {
	a := &Auditor{
		lister:    lister,
		orch:      orch,
		maxFiles:  DefaultMaxFiles,
		compactor: compactor.New(6000, 400),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type target struct {
	file     string
	workflow string
	source   string
}

// Run reviews the files under root. Only a listing failure is returned as an
// error; unreadable files are skipped and failed calls yield findings with
// risk level UNKNOWN.
func (a *Auditor) Run(ctx context.Context, root string) ([]model.AuditFinding, error) {
	files, err := a.lister.ListCandidateFiles(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(files) > a.maxFiles {
		slog.Info("capping audited files", "component", "audit", "found", len(files), "max", a.maxFiles)
		files = files[:a.maxFiles]
	}

	var targets []target
	for _, f := range files {
		src, err := a.lister.ReadFile(ctx, f)
		if err != nil {
			slog.Warn("skipping unreadable file", "component", "audit", "file", f, "error", err)
			continue
		}
		ids := identity.DeclaredIDs(src)
		if len(ids) == 0 {
			slog.Debug("no workflows declared", "component", "audit", "file", f)
			continue
		}
		for _, id := range ids {
			targets = append(targets, target{file: baseName(f), workflow: id, source: src})
		}
	}

	slog.Info("auditing workflows", "component", "audit", "files", len(files), "workflows", len(targets))
	return enrich.Many(ctx, targets, a.orch.Concurrency(), a.review, failedFinding), nil
}

func (a *Auditor) review(ctx context.Context, t target) (model.AuditFinding, error) {
	code, _ := a.compactor.Compact(t.source)
	raw, err := a.orch.Generator().Generate(ctx, prompt(t.workflow, code), systemPrompt)
	if err != nil {
		return model.AuditFinding{}, err
	}
	obj, err := enrich.ParseObject(raw)
	if err != nil {
		slog.Warn("unstructured audit response", "component", "audit", "dag", t.workflow, "error", err)
		return model.AuditFinding{
			Workflow:  t.workflow,
			Filename:  t.file,
			RiskLevel: model.RiskUnknown,
			Error:     "Unable to parse AI response: " + compactor.Clip(raw, 500),
		}, nil
	}
	return model.AuditFinding{
		Workflow:   t.workflow,
		Filename:   t.file,
		Summary:    model.VariantOf(obj["summary"]).Render(),
		Problems:   model.VariantOf(obj["problems"]),
		RiskLevel:  riskLevel(obj["risk_level"]),
		Suggestion: model.VariantOf(obj["suggestion"]),
		CodeFix:    model.VariantOf(obj["code_fix"]),
	}, nil
}

func failedFinding(t target, err error) model.AuditFinding {
	slog.Warn("audit call failed", "component", "audit", "dag", t.workflow, "file", t.file, "error", err)
	return model.AuditFinding{
		Workflow:  t.workflow,
		Filename:  t.file,
		RiskLevel: model.RiskUnknown,
		Error:     err.Error(),
	}
}

func riskLevel(v any) string {
	s, _ := v.(string)
	switch r := strings.ToUpper(strings.TrimSpace(s)); r {
	case model.SeverityHigh, model.SeverityMedium, model.SeverityLow:
		return r
	default:
		return model.RiskUnknown
	}
}

// baseName keeps the last path segment for both local paths and object keys.
func baseName(id string) string {
	return path.Base(strings.ReplaceAll(id, "\\", "/"))
}

func prompt(workflow, code string) string {
	return fmt.Sprintf(`You are an expert in Apache Airflow and Python development.

Focus your analysis on the DAG with dag_id='%s'. If there are multiple DAGs in the file, analyze only this one.

Carefully analyze the following DAG source code and provide:
1. A clear summary of what the DAG does (max 5 lines).
2. Identification of potential issues or bad practices (e.g. missing retries, hardcoded paths, improper scheduling, deprecated operators, lack of docstrings, etc.).
3. A risk level: LOW, MEDIUM, or HIGH.
4. Practical suggestions to improve the DAG, including a sample code fix if applicable.

Return your answer strictly in the following JSON format:

{
  "dag_id": string or null,
  "summary": string,
  "problems": [list of strings],
  "risk_level": "LOW" | "MEDIUM" | "HIGH",
  "suggestion": string,
  "code_fix": string or null
}

Code to analyze:
`+"```python\n%s\n```", workflow, code)
}
