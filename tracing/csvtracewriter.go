package tracing

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTraceWriter is a trace writer that stores the tasks into a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File

	tasks      []Task
	bufferSize int
}

// NewCSVTraceWriter creates a new CSVTraceWriter. The file is path.csv. If
// path is empty, a unique name is generated.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the file name the writer writes into.
func (t *CSVTraceWriter) Path() string {
	return t.path + ".csv"
}

// Init creates the tracing csv file. It panics if the file already exists.
func (t *CSVTraceWriter) Init() {
	if t.path == "" {
		t.path = "sdramsim_trace_" + xid.New().String()
	}

	filename := t.Path()
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file, "ID, ParentID, Kind, What, Where, Start, End, Steps\n")

	atexit.Register(func() { t.Close() })
}

// Write writes a task to the CSV file.
func (t *CSVTraceWriter) Write(task Task) {
	t.tasks = append(t.tasks, task)
	if len(t.tasks) >= t.bufferSize {
		t.Flush()
	}
}

// Flush flushes the tasks to the CSV file.
func (t *CSVTraceWriter) Flush() {
	if t.file == nil {
		return
	}

	for _, task := range t.tasks {
		fmt.Fprintf(t.file, "%s, %s, %s, %s, %s, %.10f, %.10f, %d\n",
			task.ID,
			task.ParentID,
			task.Kind,
			task.What,
			task.Where,
			task.StartTime,
			task.EndTime,
			len(task.Steps),
		)
	}

	t.tasks = nil
}

// Close flushes and closes the file.
func (t *CSVTraceWriter) Close() {
	if t.file == nil {
		return
	}

	t.Flush()

	err := t.file.Close()
	if err != nil {
		panic(err)
	}

	t.file = nil
}
