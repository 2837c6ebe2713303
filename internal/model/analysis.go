package model

// Severity levels used by error analyses.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// Priority levels used by workflow assessments.
const (
	PriorityCritical = "CRITICAL"
	PriorityHigh     = "HIGH"
	PriorityMedium   = "MEDIUM"
	PriorityLow      = "LOW"
)

// RiskUnknown marks an audit finding whose scoring call failed.
const RiskUnknown = "UNKNOWN"

// ErrorAnalysis is the enrichment result for one LogError.
type ErrorAnalysis struct {
	Error              LogError `json:"error"`
	Category           string   `json:"category"`
	Severity           string   `json:"severity"`
	Suggestion         string   `json:"suggestion"`
	CodeFix            Variant  `json:"code_fix"`
	DocumentationLinks []string `json:"documentation_links"`
}

// AuditFinding is the static review of one declared workflow.
type AuditFinding struct {
	Workflow   string  `json:"dag_id"`
	Filename   string  `json:"filename"`
	Summary    string  `json:"summary"`
	Problems   Variant `json:"problems"`
	RiskLevel  string  `json:"risk_level"`
	Suggestion Variant `json:"suggestion"`
	CodeFix    Variant `json:"code_fix"`
	Error      string  `json:"error,omitempty"`
}

// Assessment is the final per-workflow enrichment produced from a merged record.
type Assessment struct {
	ExecutiveSummary   string  `json:"executive_summary"`
	HealthScore        *int    `json:"health_score"`
	Priority           string  `json:"priority"`
	KeyRecommendations Variant `json:"key_recommendations"`
	Error              string  `json:"error,omitempty"`
	Raw                string  `json:"raw,omitempty"`
}
