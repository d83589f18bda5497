package tracing

import (
	"github.com/sarchlab/sdramsim/datarecording"
)

type taskTableEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Location  string
	StartTime float64
	EndTime   float64
}

type stepTableEntry struct {
	TaskID string
	Time   float64
	What   string
}

// Names of the tables a RecorderTraceWriter writes into.
const (
	TaskTable = "trace"
	StepTable = "trace_steps"
)

// RecorderTraceWriter writes tasks and their steps into a DataRecorder.
type RecorderTraceWriter struct {
	recorder datarecording.DataRecorder
}

// NewRecorderTraceWriter creates the trace tables in the recorder.
func NewRecorderTraceWriter(
	recorder datarecording.DataRecorder,
) *RecorderTraceWriter {
	recorder.CreateTable(TaskTable, taskTableEntry{})
	recorder.CreateTable(StepTable, stepTableEntry{})

	return &RecorderTraceWriter{recorder: recorder}
}

// Write writes a task and its steps.
func (w *RecorderTraceWriter) Write(task Task) {
	w.recorder.InsertData(TaskTable, taskTableEntry{
		ID:        task.ID,
		ParentID:  task.ParentID,
		Kind:      task.Kind,
		What:      task.What,
		Location:  task.Where,
		StartTime: float64(task.StartTime),
		EndTime:   float64(task.EndTime),
	})

	for _, step := range task.Steps {
		w.recorder.InsertData(StepTable, stepTableEntry{
			TaskID: task.ID,
			Time:   float64(step.Time),
			What:   step.What,
		})
	}
}

// Flush flushes the recorder.
func (w *RecorderTraceWriter) Flush() {
	w.recorder.Flush()
}
