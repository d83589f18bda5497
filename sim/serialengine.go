package sim

import (
	"log"
	"reflect"
	"sync"
)

// A SerialEngine is an Engine that always runs events one after another.
type SerialEngine struct {
	HookableBase

	timeLock       sync.RWMutex
	time           VTimeInSec
	queue          EventQueue
	secondaryQueue EventQueue

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine.
func NewSerialEngine() *SerialEngine {
	e := new(SerialEngine)

	e.queue = NewEventQueue()
	e.secondaryQueue = NewEventQueue()

	return e
}

// Schedule registers an event to happen in the future.
func (e *SerialEngine) Schedule(evt Event) {
	now := e.readNow()
	if evt.Time() < now {
		log.Panicf("scheduling an event at %.10f, earlier than now %.10f",
			evt.Time(), now)
	}

	if evt.IsSecondary() {
		e.secondaryQueue.Push(evt)
		return
	}

	e.queue.Push(evt)
}

func (e *SerialEngine) readNow() VTimeInSec {
	e.timeLock.RLock()
	t := e.time
	e.timeLock.RUnlock()

	return t
}

func (e *SerialEngine) writeNow(t VTimeInSec) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Run handles events until both queues drain or a handler fails.
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for !e.noMoreEvent() {
		if err := e.step(); err != nil {
			return err
		}
	}

	return nil
}

// step handles a single event. It holds the pause lock so that Pause blocks
// until the event is done.
func (e *SerialEngine) step() error {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	evt := e.nextEvent()
	if now := e.readNow(); evt.Time() < now {
		log.Panicf("event %s @ %.10f is behind the clock %.10f",
			reflect.TypeOf(evt), evt.Time(), now)
	}

	e.writeNow(evt.Time())

	ctx := HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
	e.InvokeHook(ctx)

	err := evt.Handler().Handle(evt)

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)

	return err
}

func (e *SerialEngine) noMoreEvent() bool {
	return e.queue.Len() == 0 && e.secondaryQueue.Len() == 0
}

// nextEvent picks primary events before secondary events of the same time.
func (e *SerialEngine) nextEvent() Event {
	if e.queue.Len() == 0 {
		return e.secondaryQueue.Pop()
	}

	if e.secondaryQueue.Len() == 0 {
		return e.queue.Pop()
	}

	if e.queue.Peek().Time() <= e.secondaryQueue.Peek().Time() {
		return e.queue.Pop()
	}

	return e.secondaryQueue.Pop()
}

// Pause prevents the SerialEngine from triggering more events.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the SerialEngine to trigger more events.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// IsPaused tells if the engine is held by Pause.
func (e *SerialEngine) IsPaused() bool {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	return e.isPaused
}

// CurrentTime returns the time of the event being handled.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	return e.readNow()
}

// RegisterSimulationEndHandler registers a handler to be called by Finished.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

// Finished should be called after the simulation ends. It calls all the
// registered SimulationEndHandlers.
func (e *SerialEngine) Finished() {
	now := e.readNow()
	for _, h := range e.simulationEndHandlers {
		h.Handle(now)
	}
}
