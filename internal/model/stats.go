package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// RunTimeLayout is the minute-resolution layout used for run timestamps in stats artifacts.
const RunTimeLayout = "2006-01-02 15:04"

// RunTime is a timestamp that serializes as RunTimeLayout, or "N/A" when zero.
type RunTime struct {
	time.Time
}

func (t RunTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`"N/A"`), nil
	}
	return json.Marshal(t.UTC().Format(RunTimeLayout))
}

func (t *RunTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		if string(b) == "null" {
			t.Time = time.Time{}
			return nil
		}
		return fmt.Errorf("run time: %w", err)
	}
	if s == "" || s == "N/A" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{RunTimeLayout, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("run time: unrecognized value %q", s)
}

// TaskStats holds per-task outcome counters for one workflow.
type TaskStats struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`  // most recent failure samples, oldest first
	Dropped int      `json:"dropped,omitempty"` // samples evicted from the bounded buffer
}

// WorkflowStats is the aggregated health of one workflow over a window.
// Field names follow the stats artifact layout read by the report merger.
type WorkflowStats struct {
	Workflow         string               `json:"DAG_ID"`
	TotalRuns        int                  `json:"Total_Runs"`
	SuccessRate      float64              `json:"Success_Rate"`
	TotalFailures    int                  `json:"Total_Failures"`
	P95Duration      *float64             `json:"P95_Duration"` // seconds, null when unknown
	FirstRun         RunTime              `json:"First_Run"`
	LastRun          RunTime              `json:"Last_Run"`
	MostFailingTask  string               `json:"Most_Failing_Task"`
	MostFailingCount int                  `json:"Most_Failing_Count"`
	Tasks            map[string]TaskStats `json:"Tasks,omitempty"`
}

// UnmarshalJSON also accepts P95_Duration written as "N/A" or as a numeric
// string, both of which older stats artifacts contain.
func (s *WorkflowStats) UnmarshalJSON(b []byte) error {
	type plain WorkflowStats
	aux := struct {
		*plain
		P95 json.RawMessage `json:"P95_Duration"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	p95, err := parseSeconds(aux.P95)
	if err != nil {
		return fmt.Errorf("P95_Duration: %w", err)
	}
	s.P95Duration = p95
	return nil
}

func parseSeconds(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil, fmt.Errorf("unrecognized value %s", raw)
	}
	if str == "" || str == "N/A" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return nil, fmt.Errorf("unrecognized value %q", str)
	}
	return &f, nil
}
