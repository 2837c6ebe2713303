// Package extractor pulls windowed, paginated log events from a connector and
// turns ERROR lines into structured records.
package extractor

import (
	"context"
	"log/slog"
	"time"

	"github.com/crimson-sun/canopy/internal/connector"
	"github.com/crimson-sun/canopy/internal/engine"
	"github.com/crimson-sun/canopy/internal/model"
)

const (
	// DefaultWindow is used when a query has no explicit start.
	DefaultWindow = 24 * time.Hour
	// DefaultMaxEvents bounds an extraction when the query leaves it unset.
	DefaultMaxEvents = 1000
	// DefaultFilter is the service-side pattern applied by Extract.
	DefaultFilter = "ERROR"
)

// Extractor finds error lines in a log group.
type Extractor struct {
	src    connector.Connector
	engine *engine.Engine
	now    func() time.Time
}

// New creates an Extractor. A nil engine uses the default classifier.
func New(src connector.Connector, eng *engine.Engine) *Extractor {
	if eng == nil {
		eng = engine.New(nil)
	}
	return &Extractor{src: src, engine: eng, now: time.Now}
}

// Window fills in missing bounds: no end means now, no start means
// DefaultWindow before the end.
func Window(q Query, now time.Time) Query {
	if q.EndMs == 0 {
		q.EndMs = now.UnixMilli()
	}
	if q.StartMs == 0 {
		q.StartMs = q.EndMs - DefaultWindow.Milliseconds()
	}
	return q
}

// Extract fetches up to MaxEvents events and returns one LogError per matching
// line, in event order then line order. A page failure aborts the extraction
// and no partial result is returned.
func (x *Extractor) Extract(ctx context.Context, q Query) ([]model.LogError, error) {
	q = Window(q, x.now())
	if q.MaxEvents == 0 {
		q.MaxEvents = DefaultMaxEvents
	}
	if q.FilterPattern == "" {
		q.FilterPattern = DefaultFilter
	}

	var errs []model.LogError
	n, err := Fetch(ctx, x.src, q, func(ev model.LogEvent) error {
		errs = append(errs, x.engine.Process(ev)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("extraction complete", "component", "extractor", "group", q.LogGroup, "events", n, "errors", len(errs))
	return errs, nil
}
