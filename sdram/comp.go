package sdram

import (
	"github.com/sarchlab/sdramsim/sdram/internal/clkdiv"
	"github.com/sarchlab/sdramsim/sdram/internal/fsm"
	"github.com/sarchlab/sdramsim/sdram/internal/refresh"
	"github.com/sarchlab/sdramsim/sdram/signal"
	"github.com/sarchlab/sdramsim/sim"
	"github.com/sarchlab/sdramsim/tracing"
)

// Errors returned by Submit.
var (
	ErrNotReady          = fsm.ErrNotReady
	ErrRequestPending    = fsm.ErrRequestPending
	ErrAddressOutOfRange = fsm.ErrAddressOutOfRange
	ErrUnknownOp         = fsm.ErrUnknownOp
)

// A Device is the memory array the controller drives. On every active edge
// the device receives the pins the controller drove since the previous edge
// and returns what it drives on the data bus.
type Device interface {
	Clock(pins signal.Pins) (dq uint16, valid bool)
}

// Stats summarizes what a controller has done.
type Stats struct {
	Ticks              uint64            `json:"ticks"`
	Edges              uint64            `json:"edges"`
	RefreshRequests    uint64            `json:"refresh_requests"`
	Refreshes          uint64            `json:"refreshes"`
	PowerUpRefreshes   uint64            `json:"power_up_refreshes"`
	Reads              uint64            `json:"reads"`
	Writes             uint64            `json:"writes"`
	RefreshPreemptions uint64            `json:"refresh_preemptions"`
	MissingReadData    uint64            `json:"missing_read_data"`
	StateEdges         map[string]uint64 `json:"state_edges"`
}

// Comp is an SDRAM controller. It ticks at the input clock and advances the
// refresh timer and the sequencer on every active edge of the divided clock.
type Comp struct {
	*sim.TickingComponent

	config  Config
	divider *clkdiv.Divider
	timer   *refresh.Timer
	seq     *fsm.Sequencer
	device  Device

	pins     signal.Pins
	ticks    uint64
	maxEdges uint64
	stopped  bool
}

// Tick advances the controller by one input clock cycle.
func (c *Comp) Tick() bool {
	c.Lock()
	defer c.Unlock()

	if c.stopped {
		return false
	}

	c.ticks++
	if !c.divider.Tick() {
		return true
	}

	c.edge()

	if c.maxEdges > 0 && c.seq.Edge() >= c.maxEdges {
		c.stopped = true
		return false
	}

	return true
}

func (c *Comp) edge() {
	var dq uint16
	var valid bool
	if c.device != nil {
		dq, valid = c.device.Clock(c.pins)
	}

	timerState := c.seq.TimerState()
	pulse := c.timer.Tick(timerState)

	from := c.seq.State()
	c.seq.Step(fsm.Inputs{RefreshRequest: pulse, DQ: dq, DQValid: valid})
	c.pins = c.seq.Pins()

	c.traceRequest(from)

	if c.NumHooks() == 0 {
		return
	}

	sample := EdgeSample{
		Edge:       c.seq.Edge(),
		Time:       c.CurrentTime(),
		From:       from,
		State:      c.seq.State(),
		Pins:       c.pins,
		Refresh:    pulse,
		TimerState: timerState,
		Counter:    c.timer.Counter(),
	}
	c.InvokeHook(sim.HookCtx{Domain: c, Pos: HookPosEdge, Item: sample})
}

func (c *Comp) traceRequest(from signal.State) {
	to := c.seq.State()

	if to.IsAccess() {
		req, _ := c.seq.Pending()
		tracing.AddTaskStep(req.ID, c, to.String())
		return
	}

	if from != signal.StateCoolOff {
		return
	}

	comp, ok := c.seq.PeekCompletion()
	if !ok {
		return
	}

	tracing.EndTask(comp.Request.ID, c)
	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosRequestDone,
		Item:   comp,
	})
}

// Submit latches a request. The controller must be Ready. If the request
// has no ID, one is generated. The ID is returned.
func (c *Comp) Submit(req signal.Request) (string, error) {
	c.Lock()
	defer c.Unlock()

	if req.ID == "" {
		req.ID = sim.GetIDGenerator().Generate()
	}

	if err := c.seq.Submit(req); err != nil {
		return "", err
	}

	tracing.StartTask(req.ID, "", c, "req_in", req.Op.String(), req)

	return req.ID, nil
}

// Ready tells if the controller accepts a request.
func (c *Comp) Ready() bool {
	c.Lock()
	defer c.Unlock()

	return c.seq.Ready()
}

// TakeCompletion returns the last completed request and clears it.
func (c *Comp) TakeCompletion() (signal.Completion, bool) {
	c.Lock()
	defer c.Unlock()

	return c.seq.TakeCompletion()
}

// State returns the sequencer state.
func (c *Comp) State() signal.State {
	c.Lock()
	defer c.Unlock()

	return c.seq.State()
}

// Pins returns the signals driven toward the device.
func (c *Comp) Pins() signal.Pins {
	c.Lock()
	defer c.Unlock()

	return c.pins
}

// PowerUpDone tells if the power-up refreshes have all been issued.
func (c *Comp) PowerUpDone() bool {
	c.Lock()
	defer c.Unlock()

	return c.seq.PowerUpRefreshesLeft() == 0
}

// Config returns the configuration the controller was built with.
func (c *Comp) Config() Config {
	return c.config
}

// Stop makes the controller stop ticking.
func (c *Comp) Stop() {
	c.Lock()
	defer c.Unlock()

	c.stopped = true
}

// Stopped tells if the controller has stopped ticking.
func (c *Comp) Stopped() bool {
	c.Lock()
	defer c.Unlock()

	return c.stopped
}

// Stats returns the counters of the controller.
func (c *Comp) Stats() Stats {
	c.Lock()
	defer c.Unlock()

	s := c.seq.Stats()
	stats := Stats{
		Ticks:              c.ticks,
		Edges:              s.Edges,
		RefreshRequests:    c.timer.Requests(),
		Refreshes:          s.Refreshes,
		PowerUpRefreshes:   s.PowerUpRefreshes,
		Reads:              s.Reads,
		Writes:             s.Writes,
		RefreshPreemptions: s.RefreshPreemptions,
		MissingReadData:    s.MissingReadData,
		StateEdges:         make(map[string]uint64),
	}

	for i, n := range s.StateEdges {
		if n > 0 {
			stats.StateEdges[signal.State(i).String()] = n
		}
	}

	return stats
}
