// Package stats folds task log events into per-workflow health counters.
package stats

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/crimson-sun/canopy/internal/identity"
	"github.com/crimson-sun/canopy/internal/model"
)

// DefaultSampleLimit caps the failure samples kept per task.
const DefaultSampleLimit = 20

// NoTask is reported as the most failing task when nothing failed.
const NoTask = "N/A"

var (
	taskOK   = regexp.MustCompile(`Marking task as SUCCESS|Task exited with return code 0`)
	taskFail = regexp.MustCompile(`Marking task as FAILED|Task exited with return code [^0]|Traceback`)
)

// Result is the outcome signalled by one log message.
type Result int

const (
	Ignored Result = iota
	Success
	Failure
)

// Outcome classifies a message. Success patterns are checked first, so a
// message matching both counts as a success.
func Outcome(msg string) Result {
	switch {
	case taskOK.MatchString(msg):
		return Success
	case taskFail.MatchString(msg):
		return Failure
	default:
		return Ignored
	}
}

type taskAcc struct {
	success int
	failed  int
	samples *ring
}

type span struct {
	first, last int64
}

type workflowAcc struct {
	success   int
	failed    int
	first     int64
	last      int64
	seen      bool
	tasks     map[string]*taskAcc
	taskOrder []string
	runs      map[string]*span
}

// Aggregator accumulates counters over a stream of events. It is not safe
// for concurrent use.
type Aggregator struct {
	sampleLimit int
	workflows   map[string]*workflowAcc
	order       []string
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSampleLimit sets the per-task failure sample cap. Values below zero are treated as zero.
func WithSampleLimit(n int) Option {
	return func(a *Aggregator) {
		a.sampleLimit = max(0, n)
	}
}

// NewAggregator creates an empty Aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		sampleLimit: DefaultSampleLimit,
		workflows:   make(map[string]*workflowAcc),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add folds one event. Events whose stream name has no workflow are skipped.
func (a *Aggregator) Add(ev model.LogEvent) {
	id := identity.Parse(ev.LogStreamName)
	if !id.Known() {
		return
	}

	w := a.workflows[id.Workflow]
	if w == nil {
		w = &workflowAcc{tasks: make(map[string]*taskAcc), runs: make(map[string]*span)}
		a.workflows[id.Workflow] = w
		a.order = append(a.order, id.Workflow)
	}

	ts := ev.Timestamp
	if !w.seen {
		w.first, w.last, w.seen = ts, ts, true
	} else {
		w.first = min(w.first, ts)
		w.last = max(w.last, ts)
	}
	if s := w.runs[id.Run]; s == nil {
		w.runs[id.Run] = &span{first: ts, last: ts}
	} else {
		s.first = min(s.first, ts)
		s.last = max(s.last, ts)
	}

	result := Outcome(ev.Message)
	if result == Ignored {
		return
	}
	t := w.tasks[id.Task]
	if t == nil {
		t = &taskAcc{samples: newRing(a.sampleLimit)}
		w.tasks[id.Task] = t
		w.taskOrder = append(w.taskOrder, id.Task)
	}
	if result == Success {
		w.success++
		t.success++
		return
	}
	w.failed++
	t.failed++
	first, _, _ := strings.Cut(ev.Message, "\n")
	t.samples.push(strings.TrimSuffix(first, "\r"))
}

// Snapshot computes derived fields for every workflow seen so far.
// The aggregator can keep accepting events afterwards.
func (a *Aggregator) Snapshot() map[string]model.WorkflowStats {
	out := make(map[string]model.WorkflowStats, len(a.workflows))
	for _, name := range a.order {
		out[name] = a.workflows[name].stats(name)
	}
	return out
}

// Workflows returns workflow identifiers in first-seen order.
func (a *Aggregator) Workflows() []string {
	return append([]string(nil), a.order...)
}

// Aggregate folds events into a fresh Aggregator and returns its snapshot.
func Aggregate(events []model.LogEvent, opts ...Option) map[string]model.WorkflowStats {
	a := NewAggregator(opts...)
	for _, ev := range events {
		a.Add(ev)
	}
	return a.Snapshot()
}

func (w *workflowAcc) stats(name string) model.WorkflowStats {
	total := w.success + w.failed
	st := model.WorkflowStats{
		Workflow:        name,
		TotalRuns:       total,
		TotalFailures:   w.failed,
		SuccessRate:     SuccessRate(w.success, total),
		MostFailingTask: NoTask,
		Tasks:           make(map[string]model.TaskStats, len(w.tasks)),
	}
	if w.seen {
		st.FirstRun = model.RunTime{Time: time.UnixMilli(w.first).UTC()}
		st.LastRun = model.RunTime{Time: time.UnixMilli(w.last).UTC()}
	}
	for _, task := range w.taskOrder {
		t := w.tasks[task]
		if t.failed > st.MostFailingCount {
			st.MostFailingTask, st.MostFailingCount = task, t.failed
		}
		st.Tasks[task] = model.TaskStats{
			Success: t.success,
			Failed:  t.failed,
			Errors:  t.samples.items(),
			Dropped: t.samples.dropped,
		}
	}
	st.P95Duration = p95(w.runs)
	return st
}

// SuccessRate returns success/total as a percentage rounded to two decimals,
// or 0 when total is zero.
func SuccessRate(success, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(success)/float64(total)*100*100) / 100
}

// p95 is the 95th percentile of run spans in seconds, or nil when no run
// spans more than one instant.
func p95(runs map[string]*span) *float64 {
	durations := make([]float64, 0, len(runs))
	for _, s := range runs {
		if d := s.last - s.first; d > 0 {
			durations = append(durations, float64(d)/1000)
		}
	}
	if len(durations) == 0 {
		return nil
	}
	sort.Float64s(durations)
	q := stat.Quantile(0.95, stat.Empirical, durations, nil)
	return &q
}
