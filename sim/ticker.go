package sim

import "sync"

// TickEvent triggers a ticking component to update its state.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a new TickEvent.
func MakeTickEvent(handler Handler, time VTimeInSec) TickEvent {
	evt := TickEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time

	return evt
}

// A Ticker updates its state cycle by cycle. Tick returns true if the
// ticker made progress in this cycle.
type Ticker interface {
	Tick() bool
}

// TickScheduler schedules tick events on behalf of a handler.
type TickScheduler struct {
	lock      sync.Mutex
	handler   Handler
	Freq      Freq
	Engine    Engine
	secondary bool

	nextTickTime VTimeInSec
}

// NewTickScheduler creates a scheduler for primary tick events.
func NewTickScheduler(handler Handler, engine Engine, freq Freq) *TickScheduler {
	return &TickScheduler{
		handler:      handler,
		Engine:       engine,
		Freq:         freq,
		nextTickTime: -1,
	}
}

// NewSecondaryTickScheduler creates a scheduler whose tick events are handled
// after all the primary events of the same time.
func NewSecondaryTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	s := NewTickScheduler(handler, engine, freq)
	s.secondary = true

	return s
}

// TickNow schedules a tick at the current tick time.
func (t *TickScheduler) TickNow() {
	t.schedule(t.Freq.ThisTick(t.CurrentTime()))
}

// TickLater schedules a tick at the next tick time.
func (t *TickScheduler) TickLater() {
	t.schedule(t.Freq.NextTick(t.CurrentTime()))
}

func (t *TickScheduler) schedule(time VTimeInSec) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.nextTickTime >= time {
		return
	}

	t.nextTickTime = time
	tick := MakeTickEvent(t.handler, time)
	tick.secondary = t.secondary
	t.Engine.Schedule(tick)
}

// CurrentTime returns the current time of the engine.
func (t *TickScheduler) CurrentTime() VTimeInSec {
	return t.Engine.CurrentTime()
}

// TickingComponent is a component that updates its state from cycle to
// cycle. It keeps ticking as long as the ticker makes progress.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker Ticker
}

// Handle triggers the tick function of the ticker.
func (c *TickingComponent) Handle(_ Event) error {
	if c.ticker.Tick() {
		c.TickLater()
	}

	return nil
}

// NewTickingComponent creates a ticking component that ticks with primary
// events.
func NewTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := &TickingComponent{ticker: ticker}
	tc.TickScheduler = NewTickScheduler(tc, engine, freq)
	tc.ComponentBase = NewComponentBase(name)

	return tc
}

// NewSecondaryTickingComponent creates a ticking component that ticks after
// all the primary events of the same time.
func NewSecondaryTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := &TickingComponent{ticker: ticker}
	tc.TickScheduler = NewSecondaryTickScheduler(tc, engine, freq)
	tc.ComponentBase = NewComponentBase(name)

	return tc
}
