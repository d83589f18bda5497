// Package fsm implements the main command sequencer of the SDRAM controller.
//
// The sequencer advances once per active edge. On each edge it sees the
// refresh request raised by the refresh timer on that same edge and the
// request latched by the requester before the edge, and it moves to the next
// state. The pins it drives are a function of the state it is in and of the
// latched request only.
package fsm

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/sdramsim/sdram/internal/refresh"
	"github.com/sarchlab/sdramsim/sdram/signal"
)

// Errors returned to requesters that break the submission protocol.
var (
	ErrNotReady          = errors.New("sequencer is not ready for a request")
	ErrRequestPending    = errors.New("a request is already pending")
	ErrAddressOutOfRange = errors.New("address out of range")
	ErrUnknownOp         = errors.New("unknown operation")
)

// Params are the build-time constants the sequencer needs.
type Params struct {
	Geometry                signal.Geometry
	PowerUpDelay            int
	PowerUpRefreshCount     int
	RefreshCyclesPerRequest int
	AutoRefreshDelay        int
	AutoRefreshDelayWidth   int
}

// Validate checks the parameters.
func (p Params) Validate() error {
	switch {
	case p.PowerUpDelay < 1:
		return fmt.Errorf("power-up delay must be at least 1, got %d",
			p.PowerUpDelay)
	case p.PowerUpRefreshCount < 1:
		return fmt.Errorf("power-up refresh count must be at least 1, got %d",
			p.PowerUpRefreshCount)
	case p.RefreshCyclesPerRequest < 1:
		return fmt.Errorf("refresh cycles per request must be at least 1, got %d",
			p.RefreshCyclesPerRequest)
	case p.AutoRefreshDelayWidth < 1 || p.AutoRefreshDelayWidth > 16:
		return fmt.Errorf("invalid auto-refresh delay width %d",
			p.AutoRefreshDelayWidth)
	case p.AutoRefreshDelay < 1 ||
		p.AutoRefreshDelay >= 1<<uint(p.AutoRefreshDelayWidth):
		return fmt.Errorf(
			"auto-refresh delay %d does not fit in a %d-bit counter",
			p.AutoRefreshDelay, p.AutoRefreshDelayWidth)
	}

	return nil
}

// BurstRefresh tells if a refresh request triggers more than one refresh
// cycle.
func (p Params) BurstRefresh() bool {
	return p.RefreshCyclesPerRequest > 1
}

// Inputs are the signals the sequencer samples on an edge.
type Inputs struct {
	// RefreshRequest is the pulse raised by the refresh timer on this edge.
	RefreshRequest bool

	// DQ is what the memory device drives on the data bus.
	DQ      uint16
	DQValid bool
}

// Stats counts what the sequencer has done.
type Stats struct {
	Edges              uint64
	Refreshes          uint64
	PowerUpRefreshes   uint64
	Reads              uint64
	Writes             uint64
	RefreshPreemptions uint64
	MissingReadData    uint64
	StateEdges         [signal.NumStates]uint64
}

// A Sequencer is the main command state machine.
type Sequencer struct {
	params Params

	state signal.State
	edge  uint64

	powerUpDwell   int
	powerUpLeft    int
	refreshLeft    int
	refreshDelay   int
	refreshPending bool

	req          signal.Request
	hasReq       bool
	inService    bool
	reqSubmitted uint64
	readData     uint16

	completion    signal.Completion
	hasCompletion bool

	timerState refresh.State
	stats      Stats
}

// New creates a sequencer in the power-up state.
func New(p Params) (*Sequencer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &Sequencer{params: p}
	s.Reset()

	return s, nil
}

// Reset puts the sequencer back to the power-up state, as after power-on.
func (s *Sequencer) Reset() {
	p := s.params
	*s = Sequencer{
		params:      p,
		state:       signal.StatePowerUp,
		powerUpLeft: p.PowerUpRefreshCount,
		timerState:  refresh.StateReset,
	}
}

// State returns the current state.
func (s *Sequencer) State() signal.State {
	return s.state
}

// Edge returns the number of edges the sequencer has advanced.
func (s *Sequencer) Edge() uint64 {
	return s.edge
}

// PowerUpRefreshesLeft returns the number of power-up refresh cycles still to
// be done before the sequencer accepts requests.
func (s *Sequencer) PowerUpRefreshesLeft() int {
	return s.powerUpLeft
}

// RefreshPending tells if a refresh request is waiting to be serviced.
func (s *Sequencer) RefreshPending() bool {
	return s.refreshPending
}

// TimerState is the state the refresh timer must be in on the next edge.
func (s *Sequencer) TimerState() refresh.State {
	return s.timerState
}

// Stats returns the counters.
func (s *Sequencer) Stats() Stats {
	return s.stats
}

// Pending returns the latched request, if any.
func (s *Sequencer) Pending() (signal.Request, bool) {
	return s.req, s.hasReq
}

// Ready tells if a new request can be submitted. This is the case only in
// steady-state idle with an empty request slot.
func (s *Sequencer) Ready() bool {
	return s.state == signal.StateIdle && s.powerUpLeft == 0 && !s.hasReq
}

// Submit latches a request. It is only accepted while the sequencer is
// Ready; the request is then consumed on a following edge.
func (s *Sequencer) Submit(req signal.Request) error {
	if s.hasReq {
		return fmt.Errorf("%w: %s", ErrRequestPending, s.req.ID)
	}

	if !s.Ready() {
		return fmt.Errorf("%w: state %s, %d power-up refreshes left",
			ErrNotReady, s.state, s.powerUpLeft)
	}

	if req.Op != signal.OpRead && req.Op != signal.OpWrite {
		return fmt.Errorf("%w: %s", ErrUnknownOp, req.Op)
	}

	if !s.params.Geometry.Contains(req.Address) {
		return fmt.Errorf("%w: 0x%x", ErrAddressOutOfRange, req.Address)
	}

	s.req = req
	s.hasReq = true
	s.reqSubmitted = s.edge

	return nil
}

// TakeCompletion returns the last completed request and clears it.
func (s *Sequencer) TakeCompletion() (signal.Completion, bool) {
	c, ok := s.completion, s.hasCompletion
	s.hasCompletion = false

	return c, ok
}

// PeekCompletion returns the last completed request without clearing it.
func (s *Sequencer) PeekCompletion() (signal.Completion, bool) {
	return s.completion, s.hasCompletion
}

// Step advances the sequencer by one active edge.
func (s *Sequencer) Step(in Inputs) {
	s.edge++

	if in.RefreshRequest {
		s.latchRefreshRequest()
	}

	from := s.state
	to := s.next(in)

	if !signal.CanTransition(from, to) {
		log.Panicf("illegal sequencer transition %s -> %s on edge %d",
			from, to, s.edge)
	}

	s.state = to
	s.timerState = s.timerControl()

	s.stats.Edges++
	s.stats.StateEdges[to]++
}

func (s *Sequencer) latchRefreshRequest() {
	if s.refreshPending {
		log.Panicf("refresh request overrun on edge %d: "+
			"previous request still pending in state %s", s.edge, s.state)
	}

	s.refreshPending = true
}

func (s *Sequencer) next(in Inputs) signal.State {
	switch s.state {
	case signal.StatePowerUp:
		return s.powerUp()
	case signal.StateModeSet:
		return signal.StatePrecharge
	case signal.StatePrecharge:
		return signal.StateIdle
	case signal.StateIdle:
		return s.arbitrate()
	case signal.StateAutoRefresh:
		s.refreshDelay = 0
		return signal.StateAutoRefreshDelay
	case signal.StateAutoRefreshDelay:
		return s.autoRefreshDelay()
	case signal.StateSetRAS:
		return signal.StateRASDelay
	case signal.StateRASDelay:
		return signal.StateSetCAS
	case signal.StateSetCAS:
		return signal.StateCASLatency1
	case signal.StateCASLatency1:
		return signal.StateCASLatency2
	case signal.StateCASLatency2:
		return s.dataPhase(in)
	case signal.StateRead, signal.StateWrite:
		return signal.StateCoolOff
	case signal.StateCoolOff:
		s.complete()
		return signal.StateIdle
	}

	log.Panicf("sequencer reached unreachable state %s (debug code %04b)",
		s.state, s.state.DebugEncoding())

	return s.state
}

func (s *Sequencer) powerUp() signal.State {
	s.powerUpDwell++
	if s.powerUpDwell < s.params.PowerUpDelay {
		return signal.StatePowerUp
	}

	return signal.StateModeSet
}

func (s *Sequencer) arbitrate() signal.State {
	switch {
	case s.powerUpLeft > 0:
		return s.startRefresh(s.powerUpLeft)
	case s.refreshPending:
		s.refreshPending = false
		if s.hasReq {
			s.stats.RefreshPreemptions++
		}

		return s.startRefresh(s.params.RefreshCyclesPerRequest)
	case s.hasReq:
		s.inService = true
		return signal.StateSetRAS
	}

	return signal.StateIdle
}

func (s *Sequencer) startRefresh(cycles int) signal.State {
	s.refreshLeft = cycles
	s.countRefresh()

	return signal.StateAutoRefresh
}

func (s *Sequencer) countRefresh() {
	if s.powerUpLeft > 0 {
		s.stats.PowerUpRefreshes++
		return
	}

	s.stats.Refreshes++
}

func (s *Sequencer) autoRefreshDelay() signal.State {
	s.refreshDelay++
	if s.refreshDelay < s.params.AutoRefreshDelay {
		return signal.StateAutoRefreshDelay
	}

	if s.powerUpLeft > 0 {
		s.powerUpLeft--
	}

	s.refreshLeft--
	if s.refreshLeft > 0 {
		s.countRefresh()
		return signal.StateAutoRefresh
	}

	return signal.StateIdle
}

func (s *Sequencer) dataPhase(in Inputs) signal.State {
	if s.req.Op == signal.OpWrite {
		return signal.StateWrite
	}

	s.readData = in.DQ
	if !in.DQValid {
		s.stats.MissingReadData++
	}

	return signal.StateRead
}

func (s *Sequencer) complete() {
	c := signal.Completion{
		Request:       s.req,
		SubmittedEdge: s.reqSubmitted,
		CompletedEdge: s.edge,
	}

	switch s.req.Op {
	case signal.OpRead:
		c.Data = s.readData
		s.stats.Reads++
	case signal.OpWrite:
		c.Data = s.req.Data
		s.stats.Writes++
	}

	s.completion = c
	s.hasCompletion = true
	s.req = signal.Request{}
	s.hasReq = false
	s.inService = false
}

// timerControl decides how the refresh timer runs on the next edge. The
// timer stays reset until the power-up refreshes are done and is frozen
// while a refresh burst is being issued.
func (s *Sequencer) timerControl() refresh.State {
	switch {
	case s.powerUpLeft > 0:
		return refresh.StateReset
	case s.params.BurstRefresh() && s.state.IsRefresh():
		return refresh.StateHalted
	}

	return refresh.StateCounting
}

// Pins returns the signals driven toward the memory device while in the
// current state.
func (s *Sequencer) Pins() signal.Pins {
	p := signal.NOPPins()
	bank, row, col := s.params.Geometry.Split(s.req.Address)

	switch s.state {
	case signal.StateModeSet:
		p.RAS, p.CAS, p.WE = true, true, true
		p.Address = signal.ModeRegisterValue()
	case signal.StatePrecharge:
		p.RAS, p.WE = true, true
		p.Address = signal.AutoPrechargeBit
	case signal.StateAutoRefresh:
		p.RAS, p.CAS = true, true
	case signal.StateSetRAS:
		p.RAS = true
		p.Bank = bank
		p.Address = row
	case signal.StateSetCAS:
		p.CAS = true
		p.WE = s.req.Op == signal.OpWrite
		p.Bank = bank
		p.Address = col | signal.AutoPrechargeBit
	case signal.StateReserved1, signal.StateReserved2:
		return signal.Pins{}
	}

	if s.inService && s.req.Op == signal.OpWrite &&
		(s.state == signal.StateSetCAS ||
			s.state == signal.StateCASLatency1 ||
			s.state == signal.StateCASLatency2 ||
			s.state == signal.StateWrite) {
		p.Data = s.req.Data
		p.DataDriven = true
	}

	return p
}

// ReadData returns the word latched from the data bus for the request in
// service.
func (s *Sequencer) ReadData() uint16 {
	return s.readData
}
