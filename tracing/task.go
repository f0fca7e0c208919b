// Package tracing turns the task events of hookable domains into traces.
package tracing

import "github.com/sarchlab/tmu/sim"

// A TaskStep is a milestone in the processing of a task.
type TaskStep struct {
	Time sim.VTimeInSec `json:"time"`
	What string         `json:"what"`
}

// A Task is a unit of work traced from its start to its end, such as one
// transaction on the ring.
type Task struct {
	ID        string         `json:"id"`
	ParentID  string         `json:"parent_id"`
	Kind      string         `json:"kind"`
	What      string         `json:"what"`
	Location  string         `json:"location"`
	StartTime sim.VTimeInSec `json:"start_time"`
	EndTime   sim.VTimeInSec `json:"end_time"`
	Steps     []TaskStep     `json:"steps"`
	Detail    interface{}    `json:"-"`
}

// TaskFilter selects the tasks a tracer is interested in.
type TaskFilter func(t Task) bool

// KindIs returns a filter that selects tasks of a kind.
func KindIs(kind string) TaskFilter {
	return func(t Task) bool {
		return t.Kind == kind
	}
}
