package sim

// VTimeInSec defines the time in the simulated space in the unit of second.
type VTimeInSec float64

// An Event is something going to happen in the future.
type Event interface {
	// Time returns the time that the event should happen.
	Time() VTimeInSec

	// Handler returns the handler that should handle the event.
	Handler() Handler

	// IsSecondary tells if the event is a secondary event. Secondary events
	// are handled after all the same-time primary events are handled.
	IsSecondary() bool
}

// EventBase provides the basic fields and getters for other events.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates a new EventBase.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	e := new(EventBase)
	e.ID = GetIDGenerator().Generate()
	e.time = t
	e.handler = handler

	return e
}

// Time returns the time that the event is going to happen.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary returns true if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// A Handler defines a domain for the events.
//
// An event is always bound to one Handler. Only the handler can schedule the
// event and the event can only directly modify the handler.
type Handler interface {
	Handle(e Event) error
}
