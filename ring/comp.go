package ring

import "github.com/sarchlab/tmu/sim"

// Comp drives a Router with an engine. It ticks after all the primary events
// of the same time, so clients acting at a tick see the state at the start
// of the cycle. Idle cycles are skipped; any port activity wakes it up.
type Comp struct {
	*sim.TickingComponent

	router *Router
}

// Router returns the router driven by the component.
func (c *Comp) Router() *Router {
	return c.router
}

// Tick advances the router by one cycle.
func (c *Comp) Tick() bool {
	return c.router.Tick()
}
