package sim

// TimeTeller can tell the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can schedule events.
type EventScheduler interface {
	Schedule(e Event)
}

// A SimulationEndHandler is called after the simulation ends.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Engine keeps the discrete event simulation running.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run processes events until no event is left.
	Run() error

	// Pause stops the engine from handling more events until Continue is
	// called.
	Pause()

	// Continue resumes a paused engine.
	Continue()

	// RegisterSimulationEndHandler registers a handler to be invoked by
	// Finished.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished invokes all the registered SimulationEndHandlers.
	Finished()
}
