package merge

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/crimson-sun/canopy/internal/model"
)

// readJSON decodes path into v. A missing, unreadable or malformed file is
// logged and reported as false.
func readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("report not found", "component", "merge", "path", path)
		} else {
			slog.Warn("report unreadable", "component", "merge", "path", path, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("report has unexpected shape", "component", "merge", "path", path, "error", err)
		return false
	}
	return true
}

// LoadStats reads a stats artifact: an object keyed by workflow identifier.
// Entries that do not decode are skipped.
func LoadStats(path string) map[string]*model.WorkflowStats {
	var raw map[string]json.RawMessage
	out := make(map[string]*model.WorkflowStats)
	if !readJSON(path, &raw) {
		return out
	}
	for id, item := range raw {
		var s model.WorkflowStats
		if err := json.Unmarshal(item, &s); err != nil {
			slog.Warn("skipping stats entry", "component", "merge", "dag", id, "error", err)
			continue
		}
		s.Workflow = id
		out[id] = &s
	}
	slog.Info("loaded stats", "component", "merge", "dags", len(out))
	return out
}

// LoadAudit reads an audit artifact: an array of findings. Items without a
// dag_id are dropped; a later item for the same id replaces an earlier one.
func LoadAudit(path string) map[string]*model.AuditFinding {
	var raw []json.RawMessage
	out := make(map[string]*model.AuditFinding)
	if !readJSON(path, &raw) {
		return out
	}
	for i, item := range raw {
		var f model.AuditFinding
		if err := json.Unmarshal(item, &f); err != nil {
			slog.Warn("skipping audit item", "component", "merge", "index", i, "error", err)
			continue
		}
		if f.Workflow == "" {
			continue
		}
		out[f.Workflow] = &f
	}
	slog.Info("loaded audit", "component", "merge", "dags", len(out))
	return out
}

// LoadAnalyses reads an error analysis artifact and groups it by the
// workflow named in each nested error record, preserving file order.
// Items without a workflow name are dropped.
func LoadAnalyses(path string) map[string][]model.ErrorAnalysis {
	var raw []json.RawMessage
	if !readJSON(path, &raw) {
		return map[string][]model.ErrorAnalysis{}
	}
	items := make([]model.ErrorAnalysis, 0, len(raw))
	for i, item := range raw {
		var a model.ErrorAnalysis
		if err := json.Unmarshal(item, &a); err != nil {
			slog.Warn("skipping analysis item", "component", "merge", "index", i, "error", err)
			continue
		}
		items = append(items, a)
	}
	out := GroupAnalyses(items)
	slog.Info("loaded analyses", "component", "merge", "dags", len(out))
	return out
}

// GroupAnalyses groups analyses by workflow name, dropping unnamed ones.
func GroupAnalyses(items []model.ErrorAnalysis) map[string][]model.ErrorAnalysis {
	out := make(map[string][]model.ErrorAnalysis)
	for _, a := range items {
		if a.Error.Workflow == "" {
			continue
		}
		out[a.Error.Workflow] = append(out[a.Error.Workflow], a)
	}
	return out
}
