package busagent

import "fmt"

// State is the 3-bit state of the microprocessor bus.
type State uint8

// The bus states. StateInvalid is never entered.
const (
	StateInvalid         State = 0b000
	StateIdle            State = 0b001
	StateAssertAddress   State = 0b010
	StateWriteLow        State = 0b011
	StateWriteHigh       State = 0b110
	StateReadLow         State = 0b111
	StateReadHigh        State = 0b101
	StateDeassertAddress State = 0b100
)

var stateNames = map[State]string{
	StateInvalid:         "invalid",
	StateIdle:            "idle",
	StateAssertAddress:   "assert_addx",
	StateWriteLow:        "wr_l",
	StateWriteHigh:       "wr_h",
	StateReadLow:         "rd_l",
	StateReadHigh:        "rd_h",
	StateDeassertAddress: "deassert_addx",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("State(%03b)", uint8(s))
}

var busTransitions = map[State][]State{
	StateIdle:            {StateIdle, StateAssertAddress},
	StateAssertAddress:   {StateAssertAddress, StateWriteLow, StateReadLow},
	StateWriteLow:        {StateWriteHigh},
	StateWriteHigh:       {StateWriteHigh, StateDeassertAddress},
	StateReadLow:         {StateReadLow, StateReadHigh},
	StateReadHigh:        {StateDeassertAddress},
	StateDeassertAddress: {StateDeassertAddress, StateIdle},
}

// CanTransit tells if the bus may move from one state to another.
func CanTransit(from, to State) bool {
	for _, s := range busTransitions[from] {
		if s == to {
			return true
		}
	}

	return false
}
