package sim

import (
	"sync"
)

// TickEvent wakes a ticking component up at a cycle boundary.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a new TickEvent.
func MakeTickEvent(handler Handler, time VTimeInSec) TickEvent {
	evt := TickEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time

	return evt
}

// A Ticker updates its state once per cycle. Tick returns false when the
// ticker has nothing left to do.
type Ticker interface {
	Tick() bool
}

// TickScheduler keeps at most one pending tick event for a handler.
type TickScheduler struct {
	lock      sync.Mutex
	handler   Handler
	Freq      Freq
	Engine    Engine
	secondary bool

	// -1 before the first tick is scheduled.
	nextTickTime VTimeInSec
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	return &TickScheduler{
		handler:      handler,
		Engine:       engine,
		Freq:         freq,
		nextTickTime: -1,
	}
}

// TickLater schedules a tick at the next cycle boundary, unless one is
// already pending.
func (t *TickScheduler) TickLater() {
	t.lock.Lock()
	defer t.lock.Unlock()

	next := t.Freq.NextTick(t.CurrentTime())
	if t.nextTickTime >= next {
		return
	}

	t.nextTickTime = next

	tick := MakeTickEvent(t.handler, next)
	tick.secondary = t.secondary
	t.Engine.Schedule(tick)
}

// CurrentTime returns the time of the engine that the scheduler uses.
func (t *TickScheduler) CurrentTime() VTimeInSec {
	return t.Engine.CurrentTime()
}

// TickingComponent is a component driven by a Ticker. It keeps ticking as
// long as Tick reports progress.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker Ticker
}

// Handle runs one tick.
func (c *TickingComponent) Handle(_ Event) error {
	if c.ticker.Tick() {
		c.TickLater()
	}

	return nil
}

// NewTickingComponent creates a new ticking component.
func NewTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	return newTickingComponent(name, engine, freq, ticker, false)
}

// NewSecondaryTickingComponent creates a ticking component whose ticks run
// after every primary event of the same time.
func NewSecondaryTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	return newTickingComponent(name, engine, freq, ticker, true)
}

func newTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
	secondary bool,
) *TickingComponent {
	tc := &TickingComponent{
		ComponentBase: NewComponentBase(name),
		ticker:        ticker,
	}
	tc.TickScheduler = NewTickScheduler(tc, engine, freq)
	tc.secondary = secondary

	return tc
}
