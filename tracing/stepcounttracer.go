package tracing

import (
	"sync"
)

type stepCount struct {
	steps uint64
	tasks uint64
}

// StepCountTracer counts how many times each step is reached and by how
// many tasks.
type StepCountTracer struct {
	filter TaskFilter

	lock      sync.Mutex
	stepNames []string
	counts    map[string]*stepCount

	// Steps already taken by each in-flight task.
	inflight map[string]map[string]bool
}

// NewStepCountTracer creates a new StepCountTracer. A nil filter accepts all
// tasks.
func NewStepCountTracer(filter TaskFilter) *StepCountTracer {
	if filter == nil {
		filter = func(Task) bool { return true }
	}

	return &StepCountTracer{
		filter:   filter,
		counts:   make(map[string]*stepCount),
		inflight: make(map[string]map[string]bool),
	}
}

// GetStepNames returns the step names in the order they were first seen.
func (t *StepCountTracer) GetStepNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.stepNames...)
}

// GetStepCount returns how many times a step was reached.
func (t *StepCountTracer) GetStepCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if c, ok := t.counts[stepName]; ok {
		return c.steps
	}

	return 0
}

// GetTaskCount returns how many tasks reached a step at least once.
func (t *StepCountTracer) GetTaskCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if c, ok := t.counts[stepName]; ok {
		return c.tasks
	}

	return 0
}

// StartTask starts following a task.
func (t *StepCountTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflight[task.ID] = make(map[string]bool)
	t.lock.Unlock()
}

// StepTask counts the step if the task is followed.
func (t *StepCountTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	taken, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	what := task.Steps[0].What

	c, ok := t.counts[what]
	if !ok {
		c = &stepCount{}
		t.counts[what] = c
		t.stepNames = append(t.stepNames, what)
	}

	c.steps++
	if !taken[what] {
		taken[what] = true
		c.tasks++
	}
}

// EndTask stops following the task.
func (t *StepCountTracer) EndTask(task Task) {
	t.lock.Lock()
	delete(t.inflight, task.ID)
	t.lock.Unlock()
}
