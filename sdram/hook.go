package sdram

import (
	"log"

	"github.com/sarchlab/sdramsim/sdram/internal/refresh"
	"github.com/sarchlab/sdramsim/sdram/signal"
	"github.com/sarchlab/sdramsim/sim"
)

// HookPosEdge is triggered after every active edge. The hook item is an
// EdgeSample.
var HookPosEdge = &sim.HookPos{Name: "SDRAMEdge"}

// HookPosRequestDone is triggered when a request completes. The hook item is
// a signal.Completion.
var HookPosRequestDone = &sim.HookPos{Name: "SDRAMRequestDone"}

// An EdgeSample is what the controller looks like right after an active
// edge.
type EdgeSample struct {
	Edge       uint64
	Time       sim.VTimeInSec
	From       signal.State
	State      signal.State
	Pins       signal.Pins
	Refresh    bool
	TimerState refresh.State
	Counter    uint64
}

// EdgeLogger is a hook that prints one line per active edge.
type EdgeLogger struct {
	*log.Logger
}

// NewEdgeLogger returns a new EdgeLogger which writes into the logger.
func NewEdgeLogger(logger *log.Logger) *EdgeLogger {
	return &EdgeLogger{Logger: logger}
}

// Func prints the edge.
func (h *EdgeLogger) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosEdge:
		s := ctx.Item.(EdgeSample)
		refreshLine := 0
		if s.Refresh {
			refreshLine = 1
		}

		h.Printf("%.10f, edge %d, %s (%04b) -> %s (%04b), ref %d, timer %s %d, %s",
			s.Time, s.Edge,
			s.From, s.From.DebugEncoding(),
			s.State, s.State.DebugEncoding(),
			refreshLine, s.TimerState, s.Counter, s.Pins)
	case HookPosRequestDone:
		c := ctx.Item.(signal.Completion)
		h.Printf("request %s %s 0x%x done, data 0x%04x, %d edges",
			c.Request.ID, c.Request.Op, c.Request.Address, c.Data, c.Latency())
	}
}
