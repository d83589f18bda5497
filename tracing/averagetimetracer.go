package tracing

import (
	"sync"

	"github.com/sarchlab/sdramsim/sim"
)

// AverageTimeTracer measures how long tasks of a certain type take, from
// StartTask to EndTask.
type AverageTimeTracer struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock      sync.Mutex
	startTime map[string]sim.VTimeInSec
	totalTime sim.VTimeInSec
	maxTime   sim.VTimeInSec
	taskCount uint64
}

// NewAverageTimeTracer creates a new AverageTimeTracer. A nil filter accepts
// all tasks.
func NewAverageTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	if filter == nil {
		filter = func(Task) bool { return true }
	}

	return &AverageTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		startTime:  make(map[string]sim.VTimeInSec),
	}
}

// AverageTime returns the average time of the finished tasks.
func (t *AverageTimeTracer) AverageTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.taskCount == 0 {
		return 0
	}

	return t.totalTime / sim.VTimeInSec(t.taskCount)
}

// MaxTime returns the time of the longest finished task.
func (t *AverageTimeTracer) MaxTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.maxTime
}

// TotalCount returns the number of finished tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// StartTask records when the task starts.
func (t *AverageTimeTracer) StartTask(task Task) {
	now := t.timeTeller.CurrentTime()

	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.startTime[task.ID] = now
	t.lock.Unlock()
}

// StepTask does nothing.
func (t *AverageTimeTracer) StepTask(_ Task) {}

// EndTask adds the duration of a followed task.
func (t *AverageTimeTracer) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.startTime[task.ID]
	if !ok {
		return
	}

	delete(t.startTime, task.ID)

	d := now - start
	t.totalTime += d
	t.taskCount++

	if d > t.maxTime {
		t.maxTime = d
	}
}
