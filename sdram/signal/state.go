// Package signal defines the vocabulary shared by the SDRAM controller core,
// the memory device model and the test harness: controller states, the pins
// driven toward the memory device and the requests accepted from upstream.
package signal

import "fmt"

// State is a state of the main sequencer.
type State int

// All the sequencer states. Reserved1 and Reserved2 are placeholders that no
// legal transition leads to.
const (
	StatePowerUp State = iota
	StateModeSet
	StatePrecharge
	StateIdle
	StateSetRAS
	StateRASDelay
	StateSetCAS
	StateCASLatency1
	StateCASLatency2
	StateWrite
	StateRead
	StateAutoRefresh
	StateAutoRefreshDelay
	StateCoolOff
	StateReserved1
	StateReserved2
	numStates
)

// NumStates is the number of state encodings, including the reserved ones.
const NumStates = int(numStates)

var stateNames = [...]string{
	StatePowerUp:          "powerup",
	StateModeSet:          "mode-set",
	StatePrecharge:        "precharge",
	StateIdle:             "idle",
	StateSetRAS:           "set-ras",
	StateRASDelay:         "ras-delay",
	StateSetCAS:           "set-cas",
	StateCASLatency1:      "cas-latency-1",
	StateCASLatency2:      "cas-latency-2",
	StateWrite:            "write",
	StateRead:             "read",
	StateAutoRefresh:      "auto-refresh",
	StateAutoRefreshDelay: "auto-refresh-delay",
	StateCoolOff:          "cool-off",
	StateReserved1:        "reserved-1",
	StateReserved2:        "reserved-2",
}

// debugEncodings are the 4-bit codes shown on the debug pins. Adjacent
// states in an access differ in a single bit.
var debugEncodings = [...]uint8{
	StateIdle:             0b0001,
	StateSetRAS:           0b0011,
	StateRASDelay:         0b0010,
	StateSetCAS:           0b0110,
	StateCASLatency1:      0b0111,
	StateCASLatency2:      0b0101,
	StateWrite:            0b0100,
	StateRead:             0b1100,
	StateAutoRefresh:      0b1101,
	StateAutoRefreshDelay: 0b1111,
	StatePrecharge:        0b1110,
	StatePowerUp:          0b1010,
	StateModeSet:          0b1011,
	StateCoolOff:          0b1001,
	StateReserved1:        0b0000,
	StateReserved2:        0b1000,
}

func (s State) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// IsValid tells if the value is one of the 16 state encodings.
func (s State) IsValid() bool {
	return s >= 0 && s < numStates
}

// IsReserved tells if the state is one of the two unreachable placeholders.
func (s State) IsReserved() bool {
	return s == StateReserved1 || s == StateReserved2
}

// DebugEncoding returns the 4-bit code of the state as exposed on the debug
// pins.
func (s State) DebugEncoding() uint8 {
	if !s.IsValid() {
		panic(fmt.Sprintf("invalid state %d", int(s)))
	}

	return debugEncodings[s]
}

// StateFromDebugEncoding decodes a 4-bit debug code.
func StateFromDebugEncoding(code uint8) (State, bool) {
	for s, c := range debugEncodings {
		if c == code&0xf {
			return State(s), true
		}
	}

	return 0, false
}

// IsAccess tells if the state belongs to a read or write operation.
func (s State) IsAccess() bool {
	switch s {
	case StateSetRAS, StateRASDelay, StateSetCAS,
		StateCASLatency1, StateCASLatency2,
		StateWrite, StateRead, StateCoolOff:
		return true
	}

	return false
}

// IsRefresh tells if the state belongs to an auto-refresh cycle.
func (s State) IsRefresh() bool {
	return s == StateAutoRefresh || s == StateAutoRefreshDelay
}

var legalSuccessors = map[State][]State{
	StatePowerUp:          {StatePowerUp, StateModeSet},
	StateModeSet:          {StatePrecharge},
	StatePrecharge:        {StateIdle},
	StateIdle:             {StateIdle, StateAutoRefresh, StateSetRAS},
	StateAutoRefresh:      {StateAutoRefreshDelay},
	StateAutoRefreshDelay: {StateAutoRefreshDelay, StateAutoRefresh, StateIdle},
	StateSetRAS:           {StateRASDelay},
	StateRASDelay:         {StateSetCAS},
	StateSetCAS:           {StateCASLatency1},
	StateCASLatency1:      {StateCASLatency2},
	StateCASLatency2:      {StateRead, StateWrite},
	StateRead:             {StateCoolOff},
	StateWrite:            {StateCoolOff},
	StateCoolOff:          {StateIdle},
}

// CanTransition tells if the sequencer may move from one state to another on
// a single edge.
func CanTransition(from, to State) bool {
	for _, s := range legalSuccessors[from] {
		if s == to {
			return true
		}
	}

	return false
}

// Successors returns the states that may follow the given state.
func Successors(s State) []State {
	return append([]State(nil), legalSuccessors[s]...)
}
