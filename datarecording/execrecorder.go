package datarecording

import (
	"os"
	"strings"
	"time"
)

type execInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how and when a program ran into the exec_info
// table.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []execInfo
}

// NewExecRecorder creates an ExecRecorder and its table.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable("exec_info", execInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start records the start time, the command line, and the working
// directory.
func (e *ExecRecorder) Start() {
	e.add("Start Time", time.Now().Format(time.RFC3339Nano))
	e.add("Command", strings.Join(os.Args, " "))

	if cwd, err := os.Getwd(); err == nil {
		e.add("Working Directory", cwd)
	}
}

// Property records an extra property of the execution, such as a
// configuration value.
func (e *ExecRecorder) Property(name, value string) {
	e.add(name, value)
}

// End writes the recorded properties along with the end time.
func (e *ExecRecorder) End() {
	e.add("End Time", time.Now().Format(time.RFC3339Nano))

	for _, entry := range e.entries {
		e.recorder.InsertData("exec_info", entry)
	}

	e.entries = nil
	e.recorder.Flush()
}

func (e *ExecRecorder) add(property, value string) {
	e.entries = append(e.entries, execInfo{Property: property, Value: value})
}
