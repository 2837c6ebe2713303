// Package enrich sends error records and merged workflow data to a scoring
// service and turns its free-form answers into typed results. Every call is
// isolated: a failed, malformed or cancelled call degrades to a default
// result for that item and never affects the others.
package enrich

import (
	"context"
	"strings"

	"github.com/crimson-sun/canopy/internal/engine/compactor"
	"github.com/crimson-sun/canopy/internal/model"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Orchestrator runs enrichment calls with bounded concurrency.
type Orchestrator struct {
	gen         Generator
	concurrency int
	compactor   *compactor.Compactor
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the number of calls in flight.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithCompactor sets the compactor applied to prompt payloads.
func WithCompactor(c *compactor.Compactor) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.compactor = c
		}
	}
}

// New creates an Orchestrator around gen.
func New(gen Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:         gen,
		concurrency: DefaultConcurrency,
		compactor:   compactor.New(3000, 500),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Concurrency returns the configured pool size.
func (o *Orchestrator) Concurrency() int { return o.concurrency }

// Generator returns the underlying generator.
func (o *Orchestrator) Generator() Generator { return o.gen }

func (o *Orchestrator) compact(s string) string {
	out, _ := o.compactor.Compact(s)
	return out
}

// normalizeSeverity maps free text onto HIGH, MEDIUM or LOW; anything else is MEDIUM.
func normalizeSeverity(v any) string {
	s, _ := v.(string)
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case model.SeverityHigh, "CRITICAL":
		return model.SeverityHigh
	case model.SeverityLow:
		return model.SeverityLow
	default:
		return model.SeverityMedium
	}
}

// normalizePriority maps free text onto the four priority levels; anything else is MEDIUM.
func normalizePriority(v any) string {
	s, _ := v.(string)
	switch p := strings.ToUpper(strings.TrimSpace(s)); p {
	case model.PriorityCritical, model.PriorityHigh, model.PriorityLow:
		return p
	default:
		return model.PriorityMedium
	}
}
