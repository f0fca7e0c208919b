package ring

import (
	"log"

	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/routing"
)

// A channel is the slotted shift register of one ring in one direction.
// slots[pos] is the output register of the station at ring position pos.
type channel struct {
	name string
	dir  routing.Direction
	topo *routing.Topology

	slots []*flit.Flit
	next  []*flit.Flit
	keep  []bool
}

func newChannel(name string, dir routing.Direction, topo *routing.Topology) *channel {
	n := topo.Size()

	return &channel{
		name:  name,
		dir:   dir,
		topo:  topo,
		slots: make([]*flit.Flit, n),
		next:  make([]*flit.Flit, n),
		keep:  make([]bool, n),
	}
}

// arrival returns the flit that reaches the station at pos in this cycle.
func (c *channel) arrival(pos int) *flit.Flit {
	return c.slots[c.topo.UpstreamPos(pos, c.dir)]
}

// localArrival returns the arrival at pos if it is destined to that station.
func (c *channel) localArrival(pos int) *flit.Flit {
	f := c.arrival(pos)
	if f == nil || f.Dst != c.topo.NodeAt(pos) {
		return nil
	}

	return f
}

// send places a flit into the output register of the station at pos.
func (c *channel) send(pos int, f *flit.Flit) {
	if c.keep[pos] || c.next[pos] != nil {
		log.Panicf("%s slot %d written twice in one cycle", c.name, pos)
	}

	c.next[pos] = f
}

// holdArrival keeps the arrival at pos in the upstream register.
func (c *channel) holdArrival(pos int) {
	up := c.topo.UpstreamPos(pos, c.dir)
	if c.next[up] != nil {
		log.Panicf("%s slot %d held after being written", c.name, up)
	}

	c.keep[up] = true
}

// resolveHolds tells, for every station, whether its arrival must stay in
// place this cycle. A local arrival stays if the station did not sink it. A
// passing arrival stays if the flit ahead of it in the next register stays.
// When every station on the ring is passing a flit, the whole ring shifts.
func (c *channel) resolveHolds(sunk []bool) []bool {
	n := len(c.slots)
	held := make([]bool, n)

	for pos := 0; pos < n; pos++ {
		cur := pos

		for i := 0; i < n; i++ {
			f := c.arrival(cur)
			if f == nil {
				break
			}

			if f.Dst == c.topo.NodeAt(cur) {
				held[pos] = !sunk[cur]
				break
			}

			cur = c.topo.DownstreamPos(cur, c.dir)
		}
	}

	return held
}

func (c *channel) commit() {
	for pos := range c.slots {
		if !c.keep[pos] {
			c.slots[pos] = c.next[pos]
		}

		c.next[pos] = nil
		c.keep[pos] = false
	}
}

func (c *channel) occupancy() int {
	count := 0

	for _, f := range c.slots {
		if f != nil {
			count++
		}
	}

	return count
}
