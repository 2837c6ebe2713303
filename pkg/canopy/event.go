package canopy

import (
	"time"

	"github.com/crimson-sun/canopy/internal/model"
)

// Event is one task log event.
type Event struct {
	Stream    string    // Log stream name, e.g. dag_id=etl/task_id=load/run_id=r1/attempt=1.log
	Message   string    // Full event text, possibly multi-line
	Timestamp time.Time // Zero means "now" for statistics
}

// Identity is the workflow, task and run recovered from a stream name.
// Unrecognized components are "unknown".
type Identity struct {
	Workflow string `json:"workflow"`
	Task     string `json:"task"`
	Run      string `json:"run"`
}

// Error is one ERROR line with its neighbouring lines.
type Error struct {
	Workflow string   `json:"workflow"`
	Task     string   `json:"task"`
	Run      string   `json:"run"`
	File     string   `json:"file"`
	Line     string   `json:"line"`
	LineNo   int      `json:"line_no"` // 1-based within the message
	Category string   `json:"category"`
	Context  []string `json:"context"`
}

// WorkflowStats is the per-workflow run summary.
type WorkflowStats = model.WorkflowStats

func (e Event) toModel(now time.Time) model.LogEvent {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = now
	}
	return model.LogEvent{
		Message:       e.Message,
		LogStreamName: e.Stream,
		Timestamp:     ts.UnixMilli(),
	}
}

func errorFromModel(le model.LogError) Error {
	return Error{
		Workflow: le.Workflow,
		Task:     le.Task,
		Run:      le.Run,
		File:     le.FileName,
		Line:     le.ErrorLine,
		LineNo:   le.LineNumber,
		Category: le.ErrorType,
		Context:  le.ContextLines,
	}
}
