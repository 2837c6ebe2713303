package merge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/crimson-sun/canopy/internal/enrich"
	"github.com/crimson-sun/canopy/internal/model"
)

type genFunc func(ctx context.Context, prompt, system string) (string, error)

func (f genFunc) Generate(ctx context.Context, prompt, system string) (string, error) {
	return f(ctx, prompt, system)
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestMergeKeyUnion(t *testing.T) {
	stats := map[string]*model.WorkflowStats{"A": {Workflow: "A", TotalRuns: 3}}
	audits := map[string]*model.AuditFinding{"B": {Workflow: "B", RiskLevel: "LOW"}}
	analyses := map[string][]model.ErrorAnalysis{"C": {{Error: model.LogError{Workflow: "C"}}}}

	merged := Merge(stats, audits, analyses)
	if got := IDs(merged); strings.Join(got, ",") != "A,B,C" {
		t.Fatalf("keys = %v, want A,B,C", got)
	}
	a, b, c := merged["A"], merged["B"], merged["C"]
	if a.Stats == nil || a.CodeAudit != nil || len(a.LogErrors) != 0 {
		t.Errorf("A = %+v", a)
	}
	if b.Stats != nil || b.CodeAudit == nil || b.LogErrors == nil {
		t.Errorf("B = %+v", b)
	}
	if c.Stats != nil || c.CodeAudit != nil || len(c.LogErrors) != 1 {
		t.Errorf("C = %+v", c)
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"stats":{},"code_audit":{`; !strings.HasPrefix(string(data), want) || !strings.HasSuffix(string(data), `"log_errors":[]}`) {
		t.Errorf("record JSON = %s", data)
	}

	data, err = json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"code_audit":{}`) || !strings.HasSuffix(string(data), `"log_errors":[]}`) {
		t.Errorf("record JSON = %s", data)
	}

	var back model.MergedRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Stats == nil || back.Stats.TotalRuns != 3 || back.CodeAudit != nil {
		t.Errorf("decoded record = %+v", back)
	}
}

func TestLoadersTolerateBadInput(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	if got := LoadStats(missing); len(got) != 0 {
		t.Errorf("missing stats = %v", got)
	}
	if got := LoadAudit(write(t, "audit.json", `{"not":"a list"}`)); len(got) != 0 {
		t.Errorf("wrong-shape audit = %v", got)
	}
	if got := LoadAnalyses(write(t, "analysis.json", `not json`)); len(got) != 0 {
		t.Errorf("malformed analyses = %v", got)
	}
}

func TestLoadStats(t *testing.T) {
	p := write(t, "dag_stats.json", `{
  "etl": {"DAG_ID": "etl", "Total_Runs": 4, "Success_Rate": 75, "Total_Failures": 1, "P95_Duration": null, "Last_Run": "2024-05-01 10:30", "Most_Failing_Task": "load"},
  "broken": {"Total_Runs": "many"}
}`)
	got := LoadStats(p)
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %v", got)
	}
	s := got["etl"]
	if s.TotalRuns != 4 || s.MostFailingTask != "load" || s.P95Duration != nil {
		t.Errorf("stats = %+v", s)
	}
	if s.LastRun.Format(model.RunTimeLayout) != "2024-05-01 10:30" {
		t.Errorf("last run = %v", s.LastRun)
	}
}

func TestLoadStatsLegacyDuration(t *testing.T) {
	p := write(t, "dag_stats.json", `{
  "etl": {"DAG_ID": "etl", "Total_Runs": 3, "Success_Rate": 66.67, "Total_Failures": 1, "P95_Duration": "N/A", "First_Run": "2024-05-01 09:00", "Last_Run": "2024-05-01 12:00", "Most_Failing_Task": "load", "Most_Failing_Count": 1},
  "reports": {"DAG_ID": "reports", "Total_Runs": 2, "P95_Duration": "42.5", "Last_Run": "N/A"},
  "ingest": {"DAG_ID": "ingest", "Total_Runs": 1, "P95_Duration": 7}
}`)
	got := LoadStats(p)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got["etl"].P95Duration != nil || got["etl"].TotalRuns != 3 || got["etl"].MostFailingCount != 1 {
		t.Errorf("etl = %+v", got["etl"])
	}
	if d := got["reports"].P95Duration; d == nil || *d != 42.5 {
		t.Errorf("reports p95 = %v, want 42.5", d)
	}
	if !got["reports"].LastRun.IsZero() {
		t.Errorf("reports last run = %v, want zero", got["reports"].LastRun)
	}
	if d := got["ingest"].P95Duration; d == nil || *d != 7 {
		t.Errorf("ingest p95 = %v, want 7", d)
	}
}

func TestLoadAuditDropsUnnamed(t *testing.T) {
	p := write(t, "dag_ai_audit.json", `[
  {"dag_id": "etl", "filename": "etl.py", "summary": "ok", "problems": ["x"], "risk_level": "LOW"},
  {"dag_id": "", "summary": "anonymous"},
  {"summary": "no id"},
  {"dag_id": "reports", "problems": "one long string", "code_fix": {"before": "a", "after": "b"}}
]`)
	got := LoadAudit(p)
	if len(got) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(got))
	}
	if got["reports"].Problems.Kind() != model.VariantText {
		t.Errorf("problems kind = %v", got["reports"].Problems.Kind())
	}
	if got["reports"].CodeFix.Kind() != model.VariantStructured {
		t.Errorf("code fix kind = %v", got["reports"].CodeFix.Kind())
	}
}

func TestLoadAnalysesGroups(t *testing.T) {
	p := write(t, "log_analysis.json", `[
  {"error": {"dag_name": "etl", "error_line": "first"}, "severity": "HIGH"},
  {"error": {"dag_name": "", "error_line": "orphan"}},
  {"category": "no error record"},
  {"error": {"dag_name": "etl", "error_line": "second"}, "severity": "LOW"},
  {"error": {"dag_name": "unknown", "error_line": "unparsed"}}
]`)
	got := LoadAnalyses(p)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %v", got)
	}
	etl := got["etl"]
	if len(etl) != 2 || etl[0].Error.ErrorLine != "first" || etl[1].Error.ErrorLine != "second" {
		t.Errorf("etl group = %+v", etl)
	}
}

func TestSummarizeTruncates(t *testing.T) {
	long := strings.Repeat("é", 250)
	r := &model.MergedRecord{LogErrors: []model.ErrorAnalysis{
		{Severity: "HIGH", Error: model.LogError{ErrorLine: long}},
	}}
	s := Summarize(r)
	if len(s.RecentLogErrors) != 1 {
		t.Fatalf("recent = %v", s.RecentLogErrors)
	}
	if n := len([]rune(s.RecentLogErrors[0].Error)); n != RecentErrorLen {
		t.Errorf("truncated to %d runes, want %d", n, RecentErrorLen)
	}
	if s.RecentLogErrors[0].Severity != "HIGH" {
		t.Errorf("severity = %q", s.RecentLogErrors[0].Severity)
	}
	if s.RecentLogErrors == nil || Summarize(&model.MergedRecord{}).RecentLogErrors == nil {
		t.Error("recent errors should serialize as an empty list")
	}
}

func TestBuildSkipsUnknown(t *testing.T) {
	var calls atomic.Int32
	gen := genFunc(func(_ context.Context, prompt, _ string) (string, error) {
		calls.Add(1)
		if strings.Contains(prompt, "'unknown'") {
			t.Error("unknown bucket was sent for assessment")
		}
		return `{"executive_summary":"fine","health_score":90,"priority":"LOW","key_recommendations":["none"]}`, nil
	})
	merged := Merge(
		map[string]*model.WorkflowStats{"etl": {Workflow: "etl"}},
		nil,
		map[string][]model.ErrorAnalysis{model.Unknown: {{Error: model.LogError{Workflow: model.Unknown}}}},
	)
	dash := Build(context.Background(), enrich.New(gen), merged)
	if len(dash) != 2 {
		t.Fatalf("dashboard keys = %d, want 2", len(dash))
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if dash["etl"].AIAnalysis == nil || dash["etl"].AIAnalysis.Priority != model.PriorityLow {
		t.Errorf("etl entry = %+v", dash["etl"].AIAnalysis)
	}
	unk := dash[model.Unknown]
	if unk.AIAnalysis != nil || unk.RawData == nil || len(unk.RawData.LogErrors) != 1 {
		t.Errorf("unknown entry = %+v", unk)
	}

	data, err := json.Marshal(dash)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"unknown":{"raw_data":{`) || !strings.Contains(string(data), `"ai_analysis":null`) {
		t.Errorf("dashboard JSON = %s", data)
	}
}
