package model

import "time"

// Unknown is the identity value used when a stream name cannot be parsed.
const Unknown = "unknown"

// LogEvent is one event as returned by the log query service.
type LogEvent struct {
	Message       string `json:"message"`
	LogStreamName string `json:"logStreamName"`
	Timestamp     int64  `json:"timestamp"` // epoch milliseconds
}

// Time returns the event timestamp in UTC.
func (e LogEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// Identity is the (workflow, task, run) triplet derived from a log stream name.
type Identity struct {
	Workflow string
	Task     string
	Run      string
}

// Known reports whether the workflow component was recovered.
func (id Identity) Known() bool {
	return id.Workflow != Unknown
}

// LogError is a single ERROR line found in a log event, with its surrounding lines.
// JSON field names match the analysis artifacts consumed by the report merger.
type LogError struct {
	Workflow     string   `json:"dag_name"`
	Task         string   `json:"task_name"`
	Run          string   `json:"execution"`
	FileName     string   `json:"file_name"`
	ErrorLine    string   `json:"error_line"`
	LineNumber   int      `json:"line_number"` // 1-based within the message
	ErrorType    string   `json:"error_type"`
	ContextLines []string `json:"context_lines"`
}
