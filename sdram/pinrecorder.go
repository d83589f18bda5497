package sdram

import (
	"github.com/sarchlab/sdramsim/datarecording"
	"github.com/sarchlab/sdramsim/sim"
)

// PinRecordTable is the table a PinRecorder writes into.
const PinRecordTable = "pins"

// PinRecord is a row of the pin table.
type PinRecord struct {
	Edge       uint64
	Time       float64
	Component  string
	State      string
	StateCode  uint8
	Command    string
	CS         bool
	RAS        bool
	CAS        bool
	WE         bool
	Bank       uint8
	Address    uint16
	Data       uint16
	DataDriven bool
	Refresh    bool
	Timer      string
	Counter    uint64
}

// PinRecorder is a hook that records every active edge into a
// DataRecorder.
type PinRecorder struct {
	recorder datarecording.DataRecorder
}

// NewPinRecorder creates the pin table and returns a recorder that fills it.
func NewPinRecorder(recorder datarecording.DataRecorder) *PinRecorder {
	recorder.CreateTable(PinRecordTable, PinRecord{})

	return &PinRecorder{recorder: recorder}
}

// Func records the edge.
func (r *PinRecorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosEdge {
		return
	}

	s := ctx.Item.(EdgeSample)
	name := ""
	if n, ok := ctx.Domain.(sim.Named); ok {
		name = n.Name()
	}

	r.recorder.InsertData(PinRecordTable, PinRecord{
		Edge:       s.Edge,
		Time:       float64(s.Time),
		Component:  name,
		State:      s.State.String(),
		StateCode:  s.State.DebugEncoding(),
		Command:    s.Pins.Command().String(),
		CS:         s.Pins.CS,
		RAS:        s.Pins.RAS,
		CAS:        s.Pins.CAS,
		WE:         s.Pins.WE,
		Bank:       s.Pins.Bank,
		Address:    s.Pins.Address,
		Data:       s.Pins.Data,
		DataDriven: s.Pins.DataDriven,
		Refresh:    s.Refresh,
		Timer:      s.TimerState.String(),
		Counter:    s.Counter,
	})
}
