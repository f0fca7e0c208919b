package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/tmu/datarecording"
	"github.com/sarchlab/tmu/sim"
)

type taskTableEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Location  string
	StartTime float64
	EndTime   float64
	Steps     int
}

// DBTracer stores completed tasks into a data recorder.
type DBTracer struct {
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder
	tableName  string

	lock               sync.Mutex
	startTime, endTime sim.VTimeInSec
	tracingTasks       map[string]Task
}

// NewDBTracer creates a DBTracer that writes into the "trace" table.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	recorder datarecording.DataRecorder,
) *DBTracer {
	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      recorder,
		tableName:    "trace",
		tracingTasks: make(map[string]Task),
	}

	recorder.CreateTable(t.tableName, taskTableEntry{})

	atexit.Register(t.Terminate)

	return t
}

// SetTimeRange limits tracing to the tasks that overlap the time range. A
// zero bound means no limit.
func (t *DBTracer) SetTimeRange(startTime, endTime sim.VTimeInSec) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.startTime = startTime
	t.endTime = endTime
}

// StartTask records the start of a task.
func (t *DBTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	if t.endTime > 0 && task.StartTime > t.endTime {
		return
	}

	t.tracingTasks[task.ID] = task
}

// StepTask counts a step of a task.
func (t *DBTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	for _, s := range task.Steps {
		s.Time = t.timeTeller.CurrentTime()
		original.Steps = append(original.Steps, s)
	}

	t.tracingTasks[task.ID] = original
}

// EndTask writes a completed task.
func (t *DBTracer) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	if t.startTime > 0 && now < t.startTime {
		return
	}

	t.backend.InsertData(t.tableName, taskTableEntry{
		ID:        original.ID,
		ParentID:  original.ParentID,
		Kind:      original.Kind,
		What:      original.What,
		Location:  original.Location,
		StartTime: float64(original.StartTime),
		EndTime:   float64(now),
		Steps:     len(original.Steps),
	})
}

// Terminate drops unfinished tasks and flushes the recorder.
func (t *DBTracer) Terminate() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.tracingTasks = make(map[string]Task)
	t.backend.Flush()
}
