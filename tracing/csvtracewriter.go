package tracing

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/tmu/sim"
)

// CSVTraceWriter is a tracer that writes completed tasks into a CSV file.
type CSVTraceWriter struct {
	path       string
	timeTeller sim.TimeTeller

	lock       sync.Mutex
	file       *os.File
	inflight   map[string]Task
	tasks      []Task
	bufferSize int
}

// NewCSVTraceWriter creates a CSVTraceWriter. The file is named path.csv.
// A unique name is generated if the path is empty.
func NewCSVTraceWriter(path string, timeTeller sim.TimeTeller) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		timeTeller: timeTeller,
		inflight:   make(map[string]Task),
		bufferSize: 1000,
	}
}

// Init creates the file. It refuses to overwrite an existing file.
func (t *CSVTraceWriter) Init() error {
	if t.path == "" {
		t.path = "tmu_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	t.file = file
	fmt.Fprintf(file, "ID, ParentID, Kind, What, Location, Start, End\n")

	atexit.Register(func() { _ = t.Close() })

	return nil
}

// StartTask records the start of a task.
func (t *CSVTraceWriter) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()

	t.lock.Lock()
	t.inflight[task.ID] = task
	t.lock.Unlock()
}

// StepTask does nothing.
func (t *CSVTraceWriter) StepTask(_ Task) {}

// EndTask buffers a completed task for writing.
func (t *CSVTraceWriter) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	delete(t.inflight, task.ID)
	original.EndTime = now
	t.tasks = append(t.tasks, original)

	if len(t.tasks) >= t.bufferSize {
		t.flush()
	}
}

// Flush writes the buffered tasks.
func (t *CSVTraceWriter) Flush() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.flush()
}

func (t *CSVTraceWriter) flush() {
	for _, task := range t.tasks {
		fmt.Fprintf(t.file, "%s, %s, %s, %s, %s, %.10f, %.10f\n",
			task.ID,
			task.ParentID,
			task.Kind,
			task.What,
			task.Location,
			task.StartTime,
			task.EndTime,
		)
	}

	t.tasks = nil
}

// Close flushes and closes the file.
func (t *CSVTraceWriter) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.file == nil {
		return nil
	}

	t.flush()
	err := t.file.Close()
	t.file = nil

	return err
}
