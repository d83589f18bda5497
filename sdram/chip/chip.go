// Package chip provides a behavioral model of an SDR SDRAM device. The model
// decodes the command pins on every clock edge, keeps the memory content,
// and checks that the controller follows the protocol.
package chip

import (
	"fmt"
	"log"

	"github.com/sarchlab/sdramsim/sdram/signal"
)

// Timing holds the device timing constraints, in clock edges.
type Timing struct {
	// TRCD is the minimum distance from ACTIVE to READ or WRITE.
	TRCD uint64

	// TRP is the time a bank needs to precharge.
	TRP uint64

	// TRFC is the duration of an auto-refresh.
	TRFC uint64
}

// DefaultTiming returns the timing the controller state machine is built
// around.
func DefaultTiming() Timing {
	return Timing{TRCD: 2, TRP: 2, TRFC: 2}
}

// A Violation is a protocol error observed by the device.
type Violation struct {
	Edge    uint64
	Command signal.Command
	Bank    uint8
	Reason  string
}

func (v Violation) Error() string {
	return fmt.Sprintf("edge %d: %s to bank %d: %s",
		v.Edge, v.Command, v.Bank, v.Reason)
}

type bank struct {
	open        bool
	row         uint16
	activatedAt uint64
	idleAt      uint64
}

type pendingRead struct {
	due  uint64
	data uint16
}

// Chip is an SDRAM device.
type Chip struct {
	geometry signal.Geometry
	timing   Timing
	strict   bool

	edge         uint64
	banks        []bank
	storage      map[uint32]uint16
	reads        []pendingRead
	modeSet      bool
	modeRegister uint16
	refreshUntil uint64

	refreshes     uint64
	lastRefresh   uint64
	maxRefreshGap uint64
	commands      map[signal.Command]uint64
	violations    []Violation
}

// Clock latches the command driven since the previous edge and returns the
// data the device drives on the data bus on this edge.
func (c *Chip) Clock(p signal.Pins) (dq uint16, valid bool) {
	c.edge++

	dq, valid = c.output()
	c.apply(p)

	return dq, valid
}

func (c *Chip) output() (uint16, bool) {
	if len(c.reads) == 0 || c.reads[0].due != c.edge {
		return 0, false
	}

	r := c.reads[0]
	c.reads = c.reads[1:]

	return r.data, true
}

func (c *Chip) apply(p signal.Pins) {
	cmd := p.Command()
	c.commands[cmd]++

	switch cmd {
	case signal.CmdDeselect, signal.CmdNOP:
		return
	case signal.CmdModeRegisterSet:
		c.modeRegisterSet(p)
		return
	}

	if !c.modeSet {
		c.violate(cmd, p.Bank, "command before mode register set")
	}

	switch cmd {
	case signal.CmdActive:
		c.activate(p)
	case signal.CmdRead:
		c.read(p)
	case signal.CmdWrite:
		c.write(p)
	case signal.CmdPrecharge:
		c.precharge(p)
	case signal.CmdAutoRefresh:
		c.autoRefresh()
	default:
		c.violate(cmd, p.Bank, "unsupported command")
	}
}

func (c *Chip) modeRegisterSet(p signal.Pins) {
	for i := range c.banks {
		if c.banks[i].open {
			c.violate(signal.CmdModeRegisterSet, uint8(i), "bank is open")
		}
	}

	c.modeSet = true
	c.modeRegister = p.Address
}

func (c *Chip) bank(cmd signal.Command, p signal.Pins) *bank {
	if int(p.Bank) >= len(c.banks) {
		c.violate(cmd, p.Bank, "no such bank")
		return nil
	}

	return &c.banks[p.Bank]
}

func (c *Chip) activate(p signal.Pins) {
	b := c.bank(signal.CmdActive, p)
	if b == nil {
		return
	}

	switch {
	case b.open:
		c.violate(signal.CmdActive, p.Bank, "bank already open")
	case c.edge < b.idleAt:
		c.violate(signal.CmdActive, p.Bank, "tRP not met")
	case c.edge < c.refreshUntil:
		c.violate(signal.CmdActive, p.Bank, "tRFC not met")
	}

	b.open = true
	b.row = p.Address
	b.activatedAt = c.edge
}

func (c *Chip) access(cmd signal.Command, p signal.Pins) (uint32, bool) {
	b := c.bank(cmd, p)
	if b == nil {
		return 0, false
	}

	if !b.open {
		c.violate(cmd, p.Bank, "bank is not open")
		return 0, false
	}

	if c.edge-b.activatedAt < c.timing.TRCD {
		c.violate(cmd, p.Bank, "tRCD not met")
	}

	colMask := uint16(1)<<uint(c.geometry.ColBits) - 1
	col := p.Address & colMask
	addr := c.geometry.Join(p.Bank, b.row, col)

	if p.Address&signal.AutoPrechargeBit != 0 {
		b.open = false
		b.idleAt = c.edge + 1 + c.timing.TRP
	}

	return addr, true
}

func (c *Chip) read(p signal.Pins) {
	addr, ok := c.access(signal.CmdRead, p)
	if !ok {
		return
	}

	c.reads = append(c.reads, pendingRead{
		due:  c.edge + signal.CASLatency,
		data: c.storage[addr],
	})
}

func (c *Chip) write(p signal.Pins) {
	addr, ok := c.access(signal.CmdWrite, p)
	if !ok {
		return
	}

	if !p.DataDriven {
		c.violate(signal.CmdWrite, p.Bank, "data bus not driven")
		return
	}

	c.storage[addr] = p.Data
}

func (c *Chip) precharge(p signal.Pins) {
	if p.Address&signal.AutoPrechargeBit != 0 {
		for i := range c.banks {
			c.closeBank(&c.banks[i])
		}

		return
	}

	if b := c.bank(signal.CmdPrecharge, p); b != nil {
		c.closeBank(b)
	}
}

func (c *Chip) closeBank(b *bank) {
	if !b.open {
		return
	}

	b.open = false
	b.idleAt = c.edge + c.timing.TRP
}

func (c *Chip) autoRefresh() {
	for i := range c.banks {
		b := &c.banks[i]

		switch {
		case b.open:
			c.violate(signal.CmdAutoRefresh, uint8(i), "bank is open")
		case c.edge < b.idleAt:
			c.violate(signal.CmdAutoRefresh, uint8(i), "tRP not met")
		}
	}

	if c.edge < c.refreshUntil {
		c.violate(signal.CmdAutoRefresh, 0, "tRFC not met")
	}

	if c.refreshes > 0 && c.edge-c.lastRefresh > c.maxRefreshGap {
		c.maxRefreshGap = c.edge - c.lastRefresh
	}

	c.refreshes++
	c.lastRefresh = c.edge
	c.refreshUntil = c.edge + c.timing.TRFC
}

func (c *Chip) violate(cmd signal.Command, bank uint8, reason string) {
	v := Violation{
		Edge:    c.edge,
		Command: cmd,
		Bank:    bank,
		Reason:  reason,
	}

	if c.strict {
		log.Panic(v)
	}

	c.violations = append(c.violations, v)
}

// Violations returns the protocol errors observed so far.
func (c *Chip) Violations() []Violation {
	return c.violations
}

// Refreshes returns the number of auto-refresh commands received.
func (c *Chip) Refreshes() uint64 {
	return c.refreshes
}

// MaxRefreshGap returns the largest number of edges between two
// consecutive auto-refresh commands.
func (c *Chip) MaxRefreshGap() uint64 {
	return c.maxRefreshGap
}

// ModeRegister returns the last value loaded into the mode register, and
// whether it has been loaded.
func (c *Chip) ModeRegister() (uint16, bool) {
	return c.modeRegister, c.modeSet
}

// CommandCount returns how many times a command has been received.
func (c *Chip) CommandCount(cmd signal.Command) uint64 {
	return c.commands[cmd]
}

// BankOpen tells if a bank has an open row.
func (c *Chip) BankOpen(bank int) bool {
	return c.banks[bank].open
}

// Load returns the word stored at a word address.
func (c *Chip) Load(addr uint32) uint16 {
	return c.storage[addr]
}

// Store places a word at a word address without going through the pins.
func (c *Chip) Store(addr uint32, data uint16) {
	c.storage[addr] = data
}
