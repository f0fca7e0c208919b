package sim

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec float64

// An Event is something that happens at a point in simulated time.
type Event interface {
	Time() VTimeInSec
	Handler() Handler

	// IsSecondary tells if the event is a secondary event. Secondary events
	// are handled after all the primary events of the same time.
	IsSecondary() bool
}

// A Handler handles events that are scheduled for it.
type Handler interface {
	Handle(e Event) error
}

// EventBase provides the common fields of events.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates a new EventBase.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	return &EventBase{
		ID:      GetIDGenerator().Generate(),
		time:    t,
		handler: handler,
	}
}

// Time returns the time that the event happens.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler of the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary returns true if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}
