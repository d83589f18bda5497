package datarecording

import (
	"os"
	"strings"
	"sync"
	"time"
)

const execTableName = "exec_info"

// ExecInfo is a row of the execution table.
type ExecInfo struct {
	Property string
	Value    string
}

// execRecorder records how the program was run.
type execRecorder struct {
	lock     sync.Mutex
	recorder DataRecorder
	entries  []ExecInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	e := &execRecorder{recorder: recorder}
	recorder.CreateTable(execTableName, ExecInfo{})

	return e
}

// Start logs the current execution.
func (e *execRecorder) Start() {
	e.Add("Start Time", now())
	e.Add("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.Add("Working Directory", cwd)
}

// Add adds a property.
func (e *execRecorder) Add(property, value string) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.entries = append(e.entries, ExecInfo{property, value})
}

// End writes all the properties into the recorder with the exit time.
func (e *execRecorder) End() {
	e.Add("End Time", now())

	e.lock.Lock()
	entries := e.entries
	e.entries = nil
	e.lock.Unlock()

	for _, entry := range entries {
		e.recorder.InsertData(execTableName, entry)
	}
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}
