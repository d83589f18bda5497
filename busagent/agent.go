// Package busagent drives an SDRAM controller the way a microprocessor bus
// does and checks that the data read back matches what was written.
package busagent

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/sdramsim/sdram/signal"
	"github.com/sarchlab/sdramsim/sim"
)

// A Controller is what the agent drives.
type Controller interface {
	Ready() bool
	Submit(req signal.Request) (string, error)
	TakeCompletion() (signal.Completion, bool)
	Stop()
	Stopped() bool
}

// A ProgressTracker follows how many steps have been started and finished.
type ProgressTracker interface {
	IncrementInProgress(amount uint64)
	MoveInProgressToFinished(amount uint64)
}

// HookPosBusState marks a change of the bus state. The item is a
// Transition.
var HookPosBusState = &sim.HookPos{Name: "BusState"}

// A Transition is a change of the bus state.
type Transition struct {
	From, To State
}

// A MismatchError reports a read that returned a word different from the
// one written.
type MismatchError struct {
	Address  uint32
	Expected uint16
	Actual   uint16
	Time     sim.VTimeInSec
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("read 0x%04x from address 0x%x at %.9f, expected 0x%04x",
		e.Actual, e.Address, float64(e.Time), e.Expected)
}

// Stats counts the transfers the agent performed.
type Stats struct {
	Ticks      uint64 `json:"ticks"`
	Writes     uint64 `json:"writes"`
	Reads      uint64 `json:"reads"`
	Checked    uint64 `json:"checked"`
	Mismatches uint64 `json:"mismatches"`
	WaitCycles uint64 `json:"wait_cycles"`
}

// Agent is a ticking component that runs a program against a controller.
type Agent struct {
	*sim.TickingComponent

	ctrl     Controller
	program  Program
	progress ProgressTracker

	state   State
	step    Step
	hasStep bool
	delay   uint64

	addressBus uint32
	dataBus    uint8
	word       uint16
	reqID      string

	stats      Stats
	mismatches []error
	completed  bool
	done       bool
}

// Tick moves the bus by one cycle.
func (a *Agent) Tick() bool {
	a.Lock()
	defer a.Unlock()

	if a.done {
		return false
	}

	if a.ctrl.Stopped() {
		a.done = true
		return false
	}

	a.stats.Ticks++

	switch a.state {
	case StateIdle:
		return a.idle()
	case StateAssertAddress:
		a.assertAddress()
	case StateWriteLow:
		a.writeLow()
	case StateWriteHigh:
		a.writeHigh()
	case StateReadLow:
		a.readLow()
	case StateReadHigh:
		a.readHigh()
	case StateDeassertAddress:
		a.deassertAddress()
	default:
		log.Panicf("bus is in state %s", a.state)
	}

	return true
}

func (a *Agent) idle() bool {
	if !a.hasStep {
		step, ok := a.program.Next()
		if !ok {
			a.finish()
			return false
		}

		a.step = step
		a.hasStep = true
		a.delay = step.Delay

		if a.progress != nil {
			a.progress.IncrementInProgress(1)
		}
	}

	if a.delay > 0 {
		a.delay--
		return true
	}

	a.addressBus = a.step.Address
	a.transit(StateAssertAddress)

	return true
}

func (a *Agent) assertAddress() {
	if a.step.Op == signal.OpWrite {
		a.transit(StateWriteLow)
		return
	}

	if !a.submit(signal.Request{Op: signal.OpRead, Address: a.addressBus}) {
		return
	}

	a.transit(StateReadLow)
}

func (a *Agent) writeLow() {
	a.dataBus = uint8(a.step.Data)
	a.word = uint16(a.dataBus)
	a.transit(StateWriteHigh)
}

func (a *Agent) writeHigh() {
	a.dataBus = uint8(a.step.Data >> 8)
	a.word = a.word&0x00ff | uint16(a.dataBus)<<8

	if !a.submit(signal.Request{
		Op:      signal.OpWrite,
		Address: a.addressBus,
		Data:    a.word,
	}) {
		return
	}

	a.transit(StateDeassertAddress)
}

func (a *Agent) readLow() {
	comp, ok := a.takeCompletion()
	if !ok {
		return
	}

	a.word = comp.Data
	a.dataBus = uint8(a.word)
	a.transit(StateReadHigh)
}

func (a *Agent) readHigh() {
	a.dataBus = uint8(a.word >> 8)
	a.stats.Reads++

	if a.step.Check {
		a.check(a.word)
	}

	a.transit(StateDeassertAddress)
}

func (a *Agent) deassertAddress() {
	if a.step.Op == signal.OpWrite {
		if _, ok := a.takeCompletion(); !ok {
			return
		}

		a.stats.Writes++
	}

	a.hasStep = false
	a.reqID = ""

	if a.progress != nil {
		a.progress.MoveInProgressToFinished(1)
	}

	a.transit(StateIdle)
}

func (a *Agent) submit(req signal.Request) bool {
	if !a.ctrl.Ready() {
		a.stats.WaitCycles++
		return false
	}

	id, err := a.ctrl.Submit(req)
	if err != nil {
		log.Panicf("%s cannot submit %s to 0x%x: %v",
			a.Name(), req.Op, req.Address, err)
	}

	a.reqID = id

	return true
}

func (a *Agent) takeCompletion() (signal.Completion, bool) {
	comp, ok := a.ctrl.TakeCompletion()
	if !ok {
		a.stats.WaitCycles++
		return comp, false
	}

	if comp.Request.ID != a.reqID {
		log.Panicf("%s expected completion of %s, got %s",
			a.Name(), a.reqID, comp.Request.ID)
	}

	return comp, true
}

func (a *Agent) check(actual uint16) {
	a.stats.Checked++

	if actual == a.step.Data {
		return
	}

	a.stats.Mismatches++
	a.mismatches = append(a.mismatches, &MismatchError{
		Address:  a.step.Address,
		Expected: a.step.Data,
		Actual:   actual,
		Time:     a.CurrentTime(),
	})
}

func (a *Agent) transit(to State) {
	if !CanTransit(a.state, to) {
		log.Panicf("bus cannot move from %s to %s", a.state, to)
	}

	from := a.state
	a.state = to

	if a.NumHooks() > 0 {
		a.InvokeHook(sim.HookCtx{
			Domain: a,
			Pos:    HookPosBusState,
			Item:   Transition{From: from, To: to},
		})
	}
}

func (a *Agent) finish() {
	a.completed = true
	a.done = true
	a.ctrl.Stop()
}

// State returns the current bus state.
func (a *Agent) State() State {
	a.Lock()
	defer a.Unlock()

	return a.state
}

// Completed tells if every step of the program has been performed.
func (a *Agent) Completed() bool {
	a.Lock()
	defer a.Unlock()

	return a.completed
}

// Stats returns the transfer counters.
func (a *Agent) Stats() Stats {
	a.Lock()
	defer a.Unlock()

	return a.stats
}

// Mismatches returns a MismatchError for every read that did not match.
func (a *Agent) Mismatches() []error {
	a.Lock()
	defer a.Unlock()

	return a.mismatches
}

// Err joins all the mismatches. It returns nil if every read matched.
func (a *Agent) Err() error {
	a.Lock()
	defer a.Unlock()

	return errors.Join(a.mismatches...)
}
