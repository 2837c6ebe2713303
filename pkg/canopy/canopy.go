package canopy

import (
	"fmt"
	"time"

	"github.com/crimson-sun/canopy/internal/engine"
	"github.com/crimson-sun/canopy/internal/engine/classifier"
	"github.com/crimson-sun/canopy/internal/identity"
	"github.com/crimson-sun/canopy/internal/model"
	"github.com/crimson-sun/canopy/internal/stats"
)

// Canopy extracts, classifies and aggregates task log events.
type Canopy struct {
	classifier  *classifier.Classifier
	engine      *engine.Engine
	sampleLimit int
}

// New creates a Canopy. It fails only when a custom pattern does not compile.
func New(opts ...Option) (*Canopy, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cls, err := classifier.New(o.patterns)
	if err != nil {
		return nil, fmt.Errorf("canopy: %w", err)
	}
	return &Canopy{
		classifier:  cls,
		engine:      engine.New(cls),
		sampleLimit: o.sampleLimit,
	}, nil
}

// Classify returns the error category of a single line.
func (c *Canopy) Classify(line string) string {
	return c.classifier.Classify(line)
}

// Identify parses a log stream name.
func Identify(stream string) Identity {
	id := identity.Parse(stream)
	return Identity{Workflow: id.Workflow, Task: id.Task, Run: id.Run}
}

// DeclaredWorkflows returns the literal dag_id values declared in a Python
// source file, in order of first appearance.
func DeclaredWorkflows(source string) []string {
	return identity.DeclaredIDs(source)
}

// ExtractErrors returns one Error per ERROR line across events, in order.
func (c *Canopy) ExtractErrors(events []Event) []Error {
	now := time.Now()
	var out []Error
	for _, ev := range events {
		for _, le := range c.engine.Process(ev.toModel(now)) {
			out = append(out, errorFromModel(le))
		}
	}
	return out
}

// Stats aggregates run outcomes per workflow.
func (c *Canopy) Stats(events []Event) map[string]WorkflowStats {
	now := time.Now()
	evs := make([]model.LogEvent, len(events))
	for i, ev := range events {
		evs[i] = ev.toModel(now)
	}
	return stats.Aggregate(evs, stats.WithSampleLimit(c.sampleLimit))
}
