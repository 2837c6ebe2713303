package engine

import (
	"regexp"
	"strings"

	"github.com/crimson-sun/canopy/internal/engine/classifier"
	"github.com/crimson-sun/canopy/internal/identity"
	"github.com/crimson-sun/canopy/internal/model"
)

// ContextRadius is the number of lines kept on each side of an error line.
const ContextRadius = 2

var errorMarker = regexp.MustCompile(`\bERROR\b`)

// Engine turns log events into per-line error records.
type Engine struct {
	classifier *classifier.Classifier
	radius     int
}

// New creates an Engine. A nil classifier uses the default table.
func New(cls *classifier.Classifier) *Engine {
	if cls == nil {
		cls = classifier.Default()
	}
	return &Engine{classifier: cls, radius: ContextRadius}
}

// Process emits one LogError for every line of the event's message that
// contains the ERROR token, with up to ContextRadius lines before and after.
func (e *Engine) Process(ev model.LogEvent) []model.LogError {
	lines := SplitLines(ev.Message)
	var out []model.LogError
	var id model.Identity
	parsed := false
	for i, line := range lines {
		if !IsErrorLine(line) {
			continue
		}
		if !parsed {
			id = identity.Parse(ev.LogStreamName)
			parsed = true
		}
		lo := max(0, i-e.radius)
		hi := min(len(lines), i+e.radius+1)
		out = append(out, model.LogError{
			Workflow:     id.Workflow,
			Task:         id.Task,
			Run:          id.Run,
			FileName:     identity.FileName(ev.LogStreamName),
			ErrorLine:    line,
			LineNumber:   i + 1,
			ErrorType:    e.classifier.Classify(line),
			ContextLines: append([]string(nil), lines[lo:hi]...),
		})
	}
	return out
}

// IsErrorLine reports whether line carries the standalone ERROR token.
func IsErrorLine(line string) bool {
	return errorMarker.MatchString(line)
}

// ProcessBatch runs Process over events in order.
func (e *Engine) ProcessBatch(events []model.LogEvent) []model.LogError {
	var out []model.LogError
	for _, ev := range events {
		out = append(out, e.Process(ev)...)
	}
	return out
}

// SplitLines splits on newlines, tolerating CRLF. A trailing newline does not
// produce an empty final line.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
