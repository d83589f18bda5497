package main

import (
	"fmt"
	"io"
	"log"

	"github.com/sarchlab/sdramsim/busagent"
	"github.com/sarchlab/sdramsim/datarecording"
	"github.com/sarchlab/sdramsim/monitoring"
	"github.com/sarchlab/sdramsim/sdram"
	"github.com/sarchlab/sdramsim/sdram/chip"
	"github.com/sarchlab/sdramsim/sim"
	"github.com/sarchlab/sdramsim/tracing"
)

type simulation struct {
	engine  *sim.SerialEngine
	device  *chip.Chip
	ctrl    *sdram.Comp
	agent   *busagent.Agent
	program busagent.Program
	latency *tracing.AverageTimeTracer
	steps   *tracing.StepCountTracer

	recorder datarecording.DataRecorder
	csv      *tracing.CSVTraceWriter
	tracers  []*tracing.DBTracer

	monitor     *monitoring.Monitor
	progressBar *monitoring.ProgressBar
}

type simulationOptions struct {
	config     sdram.Config
	program    busagent.Program
	maxEdges   uint64
	tracePath  string
	recordPath string
	monitor    bool
	port       int
	logger     *log.Logger
	level      logLevel
}

type busStateLogger struct {
	*log.Logger
}

func (l busStateLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != busagent.HookPosBusState {
		return
	}

	t := ctx.Item.(busagent.Transition)
	l.Printf("bus %s -> %s", t.From, t.To)
}

func buildSimulation(opts simulationOptions) *simulation {
	s := &simulation{
		engine:  sim.NewSerialEngine(),
		program: opts.program,
	}

	if opts.level >= levelTrace {
		s.engine.AcceptHook(sim.NewEventLogger(opts.logger))
	}

	config := opts.config
	if opts.level >= levelDebug {
		config.ShowDebug = true
	}

	s.device = chip.MakeBuilder().WithGeometry(config.Geometry).Build()

	ctrlBuilder := sdram.MakeBuilder().
		WithEngine(s.engine).
		WithConfig(config).
		WithDevice(s.device).
		WithMaxEdges(opts.maxEdges)

	if opts.recordPath != "" {
		s.recorder = datarecording.New(opts.recordPath)
		s.recorder.RecordProperty("Program", opts.program.Name())
		s.recorder.RecordProperty("Refresh Interval",
			fmt.Sprint(config.RefreshInterval()))
		ctrlBuilder = ctrlBuilder.WithAdditionalHooks(
			sdram.NewPinRecorder(s.recorder))
	}

	s.ctrl = ctrlBuilder.Build("Board.SDRAMCtrl")

	s.latency = tracing.NewAverageTimeTracer(s.engine, tracing.KindFilter("req_in"))
	tracing.CollectTrace(s.ctrl, s.latency)

	s.steps = tracing.NewStepCountTracer(tracing.KindFilter("req_in"))
	tracing.CollectTrace(s.ctrl, s.steps)

	if opts.tracePath != "" {
		s.csv = tracing.NewCSVTraceWriter(opts.tracePath)
		s.csv.Init()
		s.addTracer(s.csv)
	}

	if s.recorder != nil {
		s.addTracer(tracing.NewRecorderTraceWriter(s.recorder))
	}

	agentBuilder := busagent.MakeBuilder().
		WithEngine(s.engine).
		WithFreq(config.InputFreq()).
		WithController(s.ctrl).
		WithProgram(opts.program)

	if opts.level >= levelDebug {
		agentBuilder = agentBuilder.WithAdditionalHooks(
			busStateLogger{Logger: opts.logger})
	}

	if opts.monitor {
		s.monitor = monitoring.NewMonitor().WithPortNumber(opts.port)
		if opts.level >= levelDebug {
			s.monitor.WithAccessLog(opts.logger.Writer())
		}

		s.progressBar = s.monitor.CreateProgressBar(
			opts.program.Name(), opts.program.Len())
		agentBuilder = agentBuilder.WithProgressTracker(s.progressBar)
	}

	s.agent = agentBuilder.Build("Board.Bus")

	if s.monitor != nil {
		s.registerMonitor()
	}

	return s
}

func (s *simulation) addTracer(w tracing.TraceWriter) {
	t := tracing.NewDBTracer(s.engine, w)
	tracing.CollectTrace(s.ctrl, t)
	s.tracers = append(s.tracers, t)
}

func (s *simulation) registerMonitor() {
	s.monitor.RegisterEngine(s.engine)
	s.monitor.RegisterComponent(s.ctrl)
	s.monitor.RegisterComponent(s.agent)
	s.monitor.RegisterStatsSource(s.ctrl.Name(), func() any {
		return s.ctrl.Stats()
	})
	s.monitor.RegisterStatsSource(s.agent.Name(), func() any {
		return s.agent.Stats()
	})
	s.monitor.RegisterStatsSource(s.ctrl.Name()+".States", func() any {
		return s.stateVisits()
	})
}

func (s *simulation) run() error {
	err := s.engine.Run()
	s.engine.Finished()

	for _, t := range s.tracers {
		t.Terminate()
	}

	if s.csv != nil {
		s.csv.Close()
	}

	if s.recorder != nil {
		if cerr := s.recorder.Close(); err == nil {
			err = cerr
		}
	}

	if s.progressBar != nil {
		s.monitor.CompleteProgressBar(s.progressBar)
	}

	return err
}

type summary struct {
	Program      string
	Completed    bool
	Time         sim.VTimeInSec
	Ctrl         sdram.Stats
	Bus          busagent.Stats
	Requests     uint64
	AvgLatency   sim.VTimeInSec
	MaxLatency   sim.VTimeInSec
	Refreshes    uint64
	MaxGap       uint64
	Violations   []chip.Violation
	Mismatches   []error
	PendingTasks int
	States       []stateVisit
}

// stateVisit tells how often the sequencer passed through a state while
// serving requests.
type stateVisit struct {
	State    string
	Visits   uint64
	Requests uint64
}

func (s *simulation) stateVisits() []stateVisit {
	var visits []stateVisit

	for _, name := range s.steps.GetStepNames() {
		visits = append(visits, stateVisit{
			State:    name,
			Visits:   s.steps.GetStepCount(name),
			Requests: s.steps.GetTaskCount(name),
		})
	}

	return visits
}

func (s *simulation) summarize() summary {
	sum := summary{
		Program:    s.program.Name(),
		Completed:  s.agent.Completed(),
		Time:       s.engine.CurrentTime(),
		Ctrl:       s.ctrl.Stats(),
		Bus:        s.agent.Stats(),
		Requests:   s.latency.TotalCount(),
		AvgLatency: s.latency.AverageTime(),
		MaxLatency: s.latency.MaxTime(),
		Refreshes:  s.device.Refreshes(),
		MaxGap:     s.device.MaxRefreshGap(),
		Violations: s.device.Violations(),
		Mismatches: s.agent.Mismatches(),
		States:     s.stateVisits(),
	}

	for _, t := range s.tracers {
		sum.PendingTasks += t.NumInflightTasks()
	}

	return sum
}

func (sum summary) print(w io.Writer) {
	fmt.Fprintf(w, "program:         %s\n", sum.Program)
	fmt.Fprintf(w, "completed:       %t\n", sum.Completed)
	fmt.Fprintf(w, "simulated time:  %.9f s\n", float64(sum.Time))
	fmt.Fprintf(w, "edges:           %d\n", sum.Ctrl.Edges)
	fmt.Fprintf(w, "writes:          %d\n", sum.Ctrl.Writes)
	fmt.Fprintf(w, "reads:           %d\n", sum.Ctrl.Reads)
	fmt.Fprintf(w, "refreshes:       %d (%d at power-up)\n",
		sum.Refreshes, sum.Ctrl.PowerUpRefreshes)
	fmt.Fprintf(w, "max refresh gap: %d edges\n", sum.MaxGap)
	fmt.Fprintf(w, "preemptions:     %d\n", sum.Ctrl.RefreshPreemptions)
	fmt.Fprintf(w, "avg latency:     %.9f s over %d requests\n",
		float64(sum.AvgLatency), sum.Requests)
	fmt.Fprintf(w, "max latency:     %.9f s\n", float64(sum.MaxLatency))
	fmt.Fprintf(w, "checked reads:   %d\n", sum.Bus.Checked)
	fmt.Fprintf(w, "mismatches:      %d\n", len(sum.Mismatches))
	fmt.Fprintf(w, "violations:      %d\n", len(sum.Violations))

	for _, v := range sum.States {
		fmt.Fprintf(w, "  state %-14s %d visits by %d requests\n",
			v.State, v.Visits, v.Requests)
	}

	for _, m := range sum.Mismatches {
		fmt.Fprintf(w, "  %v\n", m)
	}

	for _, v := range sum.Violations {
		fmt.Fprintf(w, "  %v\n", v)
	}
}

func (sum summary) err() error {
	if len(sum.Mismatches) == 0 && len(sum.Violations) == 0 {
		return nil
	}

	return fmt.Errorf("%d mismatches, %d device violations",
		len(sum.Mismatches), len(sum.Violations))
}
