// Package identity recovers workflow identifiers from log stream names and
// from workflow source files.
package identity

import (
	"strings"

	"github.com/crimson-sun/canopy/internal/model"
)

// Parse derives the (workflow, task, run) triplet from a log stream name such as
// "dag_id=etl/task_id=load/run_id=manual__2024-01-01/attempt=1.log". Each of the
// first three "/" segments is either a bare value or key=value, in which case the
// text after the last "=" is used. Names with fewer than three segments yield the
// unknown triplet, and an empty component is reported as unknown.
func Parse(streamName string) model.Identity {
	parts := strings.Split(streamName, "/")
	if len(parts) < 3 {
		return model.Identity{Workflow: model.Unknown, Task: model.Unknown, Run: model.Unknown}
	}
	return model.Identity{
		Workflow: segmentValue(parts[0]),
		Task:     segmentValue(parts[1]),
		Run:      segmentValue(parts[2]),
	}
}

// FileName returns the last "/" segment of a stream name.
func FileName(streamName string) string {
	if i := strings.LastIndexByte(streamName, '/'); i >= 0 {
		return streamName[i+1:]
	}
	return streamName
}

func segmentValue(seg string) string {
	if i := strings.LastIndexByte(seg, '='); i >= 0 {
		seg = seg[i+1:]
	}
	if seg == "" {
		return model.Unknown
	}
	return seg
}
