// Package refresh implements the free-running refresh interval timer.
package refresh

import (
	"fmt"
	"log"
)

// State is the state tag of the timer. The tags are one-hot so that each
// state decodes with a single bit test.
type State uint8

// The timer states.
const (
	StateCounting State = 0b001
	StateHalted   State = 0b010
	StateReset    State = 0b100
)

func (s State) String() string {
	switch s {
	case StateCounting:
		return "counting"
	case StateHalted:
		return "halted"
	case StateReset:
		return "reset"
	}

	return fmt.Sprintf("State(%03b)", uint8(s))
}

// IsCounting tests the counting bit.
func (s State) IsCounting() bool { return s&StateCounting != 0 }

// IsHalted tests the halted bit.
func (s State) IsHalted() bool { return s&StateHalted != 0 }

// IsReset tests the reset bit.
func (s State) IsReset() bool { return s&StateReset != 0 }

// A Timer counts active edges and raises a one-edge refresh request every
// interval edges.
type Timer struct {
	interval uint64
	width    int
	state    State
	counter  uint64
	requests uint64
}

// NewTimer creates a timer that is held in reset until told to count.
func NewTimer(interval uint64, counterWidth int) (*Timer, error) {
	if interval == 0 {
		return nil, fmt.Errorf("refresh interval must be greater than 0")
	}

	if counterWidth <= 0 || counterWidth > 63 {
		return nil, fmt.Errorf("invalid refresh counter width %d", counterWidth)
	}

	if interval >= 1<<uint(counterWidth) {
		return nil, fmt.Errorf(
			"refresh interval %d does not fit in a %d-bit counter",
			interval, counterWidth)
	}

	t := &Timer{
		interval: interval,
		width:    counterWidth,
		state:    StateReset,
	}

	return t, nil
}

// Interval returns the number of edges between two refresh requests.
func (t *Timer) Interval() uint64 {
	return t.interval
}

// State returns the state the timer was in on the last edge.
func (t *Timer) State() State {
	return t.state
}

// Counter returns the current count.
func (t *Timer) Counter() uint64 {
	return t.counter
}

// Requests returns the number of refresh requests raised so far.
func (t *Timer) Requests() uint64 {
	return t.requests
}

// Tick advances the timer by one active edge in the given state and returns
// true on the edge where a refresh request is raised.
func (t *Timer) Tick(state State) bool {
	t.state = state

	switch {
	case state.IsReset():
		t.counter = 0
		return false
	case state.IsHalted():
		return false
	case state.IsCounting():
		return t.count()
	}

	log.Panicf("refresh timer in invalid state %s", state)

	return false
}

func (t *Timer) count() bool {
	t.counter++
	if t.counter&(1<<uint(t.width)-1) != t.counter {
		log.Panicf("refresh counter overflowed %d bits", t.width)
	}

	if t.counter == t.interval {
		t.counter = 0
		t.requests++

		return true
	}

	return false
}
