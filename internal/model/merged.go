package model

import (
	"bytes"
	"encoding/json"
)

// MergedRecord joins everything known about one workflow.
// Absent stats or audit serialize as empty objects and decode back to nil.
type MergedRecord struct {
	Workflow  string          `json:"-"`
	Stats     *WorkflowStats  `json:"stats"`
	CodeAudit *AuditFinding   `json:"code_audit"`
	LogErrors []ErrorAnalysis `json:"log_errors"`
}

var emptyObject = json.RawMessage(`{}`)

type mergedWire struct {
	Stats     json.RawMessage `json:"stats"`
	CodeAudit json.RawMessage `json:"code_audit"`
	LogErrors []ErrorAnalysis `json:"log_errors"`
}

func (r MergedRecord) MarshalJSON() ([]byte, error) {
	w := mergedWire{Stats: emptyObject, CodeAudit: emptyObject, LogErrors: r.LogErrors}
	if w.LogErrors == nil {
		w.LogErrors = []ErrorAnalysis{}
	}
	if r.Stats != nil {
		b, err := json.Marshal(r.Stats)
		if err != nil {
			return nil, err
		}
		w.Stats = b
	}
	if r.CodeAudit != nil {
		b, err := json.Marshal(r.CodeAudit)
		if err != nil {
			return nil, err
		}
		w.CodeAudit = b
	}
	return json.Marshal(w)
}

func (r *MergedRecord) UnmarshalJSON(b []byte) error {
	var w mergedWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	r.Stats, r.CodeAudit = nil, nil
	r.LogErrors = w.LogErrors
	if !isEmptyObject(w.Stats) {
		r.Stats = &WorkflowStats{}
		if err := json.Unmarshal(w.Stats, r.Stats); err != nil {
			return err
		}
	}
	if !isEmptyObject(w.CodeAudit) {
		r.CodeAudit = &AuditFinding{}
		if err := json.Unmarshal(w.CodeAudit, r.CodeAudit); err != nil {
			return err
		}
	}
	return nil
}

func isEmptyObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || string(t) == "null" {
		return true
	}
	if t[0] != '{' || t[len(t)-1] != '}' {
		return false
	}
	return len(bytes.TrimSpace(t[1:len(t)-1])) == 0
}

// DashboardEntry is one value of the dashboard document.
// AIAnalysis is nil for records that are not enriched.
type DashboardEntry struct {
	RawData    *MergedRecord `json:"raw_data"`
	AIAnalysis *Assessment   `json:"ai_analysis"`
}

// Dashboard is keyed by workflow identifier.
type Dashboard map[string]DashboardEntry
