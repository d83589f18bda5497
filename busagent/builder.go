package busagent

import (
	"log"

	"github.com/sarchlab/sdramsim/sim"
)

// Builder can build bus agents.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	ctrl     Controller
	program  Program
	progress ProgressTracker
	hooks    []sim.Hook
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq: 25 * sim.MHz,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the bus clock. It should be the input clock of the
// controller.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithController sets the controller that the agent drives.
func (b Builder) WithController(ctrl Controller) Builder {
	b.ctrl = ctrl
	return b
}

// WithProgram sets the program to run.
func (b Builder) WithProgram(p Program) Builder {
	b.program = p
	return b
}

// WithProgressTracker reports the progress of the program to t.
func (b Builder) WithProgressTracker(t ProgressTracker) Builder {
	b.progress = t
	return b
}

// WithAdditionalHooks adds hooks to the agent.
func (b Builder) WithAdditionalHooks(hooks ...sim.Hook) Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// Build creates a bus agent. The agent ticks after the controller in every
// cycle so that it observes the outputs the controller settled on.
func (b Builder) Build(name string) *Agent {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	if b.ctrl == nil {
		log.Panic("controller is not set")
	}

	if b.program == nil {
		log.Panic("program is not set")
	}

	a := &Agent{
		ctrl:     b.ctrl,
		program:  b.program,
		progress: b.progress,
		state:    StateIdle,
	}
	a.TickingComponent = sim.NewSecondaryTickingComponent(
		name, b.engine, b.freq, a)

	for _, h := range b.hooks {
		a.AcceptHook(h)
	}

	a.TickLater()

	return a
}
