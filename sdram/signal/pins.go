package signal

import "fmt"

// Pins is the set of signals the controller drives toward the memory device
// during one clock cycle. The strobes are in their logical sense: true means
// asserted, which is a low level on the wire.
type Pins struct {
	CS  bool
	RAS bool
	CAS bool
	WE  bool

	Bank    uint8
	Address uint16

	Data       uint16
	DataDriven bool
}

// AutoPrechargeBit is A10. With a column command it closes the row after the
// access; with a precharge command it selects all banks.
const AutoPrechargeBit uint16 = 1 << 10

// Command is a DRAM command decoded from the strobes.
type Command int

// The commands of a single data rate SDRAM.
const (
	CmdDeselect Command = iota
	CmdNOP
	CmdActive
	CmdRead
	CmdWrite
	CmdPrecharge
	CmdAutoRefresh
	CmdModeRegisterSet
	CmdBurstTerminate
)

var commandNames = [...]string{
	CmdDeselect:        "DESL",
	CmdNOP:             "NOP",
	CmdActive:          "ACT",
	CmdRead:            "RD",
	CmdWrite:           "WR",
	CmdPrecharge:       "PRE",
	CmdAutoRefresh:     "REF",
	CmdModeRegisterSet: "MRS",
	CmdBurstTerminate:  "BST",
}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return fmt.Sprintf("Command(%d)", int(c))
	}

	return commandNames[c]
}

// Command decodes the command presented on the pins.
func (p Pins) Command() Command {
	if !p.CS {
		return CmdDeselect
	}

	switch {
	case !p.RAS && !p.CAS && !p.WE:
		return CmdNOP
	case p.RAS && !p.CAS && !p.WE:
		return CmdActive
	case !p.RAS && p.CAS && !p.WE:
		return CmdRead
	case !p.RAS && p.CAS && p.WE:
		return CmdWrite
	case p.RAS && !p.CAS && p.WE:
		return CmdPrecharge
	case p.RAS && p.CAS && !p.WE:
		return CmdAutoRefresh
	case p.RAS && p.CAS && p.WE:
		return CmdModeRegisterSet
	default:
		return CmdBurstTerminate
	}
}

// Levels returns the wire levels of the active-low strobes, in the order
// CS#, RAS#, CAS#, WE#.
func (p Pins) Levels() (cs, ras, cas, we bool) {
	return !p.CS, !p.RAS, !p.CAS, !p.WE
}

func (p Pins) String() string {
	s := fmt.Sprintf("%s ba=%d a=0x%04x", p.Command(), p.Bank, p.Address)
	if p.DataDriven {
		s += fmt.Sprintf(" dq=0x%04x", p.Data)
	}

	return s
}

// NOPPins returns the pins of a selected device with no command.
func NOPPins() Pins {
	return Pins{CS: true}
}
