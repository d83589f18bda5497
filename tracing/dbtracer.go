package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/sdramsim/sim"
)

// A TraceWriter persists finished tasks.
type TraceWriter interface {
	Write(task Task)
	Flush()
}

// DBTracer is a tracer that stores finished tasks through a TraceWriter, so
// that the tasks can be stored in CSV files or SQLite databases.
type DBTracer struct {
	lock       sync.Mutex
	timeTeller sim.TimeTeller
	backend    TraceWriter

	startTime, endTime sim.VTimeInSec

	tracingTasks map[string]Task
}

// NewDBTracer creates a new DBTracer. The backend is flushed when the
// program exits.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	backend TraceWriter,
) *DBTracer {
	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      backend,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// SetTimeRange limits the tracing to the tasks that overlap with the time
// range. A zero bound is open.
func (t *DBTracer) SetTimeRange(startTime, endTime sim.VTimeInSec) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.startTime = startTime
	t.endTime = endTime
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	task.StartTime = t.timeTeller.CurrentTime()
	if t.endTime > 0 && task.StartTime > t.endTime {
		return
	}

	t.tracingTasks[task.ID] = task
}

// StepTask adds a step to a task.
func (t *DBTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	for _, step := range task.Steps {
		step.Time = t.timeTeller.CurrentTime()
		originalTask.Steps = append(originalTask.Steps, step)
	}

	t.tracingTasks[task.ID] = originalTask
}

// EndTask marks the end of a task and writes it.
func (t *DBTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	task.EndTime = t.timeTeller.CurrentTime()

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	if t.startTime > 0 && task.EndTime < t.startTime {
		return
	}

	originalTask.EndTime = task.EndTime
	t.backend.Write(originalTask)
}

// NumInflightTasks returns the number of tasks started but not ended.
func (t *DBTracer) NumInflightTasks() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.tracingTasks)
}

// Terminate writes the tasks that have not ended, with the current time as
// their end time, and flushes the backend.
func (t *DBTracer) Terminate() {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.timeTeller.CurrentTime()
	for id, task := range t.tracingTasks {
		task.EndTime = now
		t.backend.Write(task)
		delete(t.tracingTasks, id)
	}

	t.backend.Flush()
}
