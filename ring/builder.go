package ring

import (
	"log"

	"github.com/pkg/errors"

	"github.com/sarchlab/tmu/arbitration"
	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/routing"
	"github.com/sarchlab/tmu/sim"
)

// Builder builds routers.
type Builder struct {
	freq           sim.Freq
	numNodes       int
	ringOrder      []flit.NodeID
	partitionBytes int
	sendDepth      int
	mergeDepth     int
	respDepth      int
	tagBits        int
	mergeBypass    bool
}

// MakeBuilder creates a builder with the default configuration: 8 nodes,
// 128 KiB partitions, depth-4 queues and 8-bit tags.
func MakeBuilder() Builder {
	return Builder{
		freq:           1 * sim.GHz,
		numNodes:       8,
		partitionBytes: 128 * 1024,
		sendDepth:      4,
		mergeDepth:     4,
		respDepth:      4,
		tagBits:        8,
	}
}

// WithFreq sets the frequency the router ticks at when driven by an engine.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// Freq returns the frequency the router ticks at in engine-driven mode.
func (b Builder) Freq() sim.Freq {
	return b.freq
}

// WithNumNodes sets the number of nodes. It must be a power of two.
func (b Builder) WithNumNodes(n int) Builder {
	b.numNodes = n
	return b
}

// WithRingOrder sets the order in which the nodes sit on the ring. The
// default order is routing.DefaultRingOrder.
func (b Builder) WithRingOrder(order []flit.NodeID) Builder {
	b.ringOrder = order
	return b
}

// WithPartitionBytes sets the size of the storage owned by each node.
func (b Builder) WithPartitionBytes(bytes int) Builder {
	b.partitionBytes = bytes
	return b
}

// WithSendBufferDepth sets the depth of the send buffers.
func (b Builder) WithSendBufferDepth(depth int) Builder {
	b.sendDepth = depth
	return b
}

// WithMergeBufferDepth sets the depth of the merge buffers.
func (b Builder) WithMergeBufferDepth(depth int) Builder {
	b.mergeDepth = depth
	return b
}

// WithResponseQueueDepth sets the depth of the queues between the storage
// and the response ring.
func (b Builder) WithResponseQueueDepth(depth int) Builder {
	b.respDepth = depth
	return b
}

// WithTagBits sets the width of request tags, at most 8.
func (b Builder) WithTagBits(bits int) Builder {
	b.tagBits = bits
	return b
}

// WithMergeBypass lets a response that arrives while both merge buffers are
// empty be delivered in the same cycle, saving one cycle of latency.
func (b Builder) WithMergeBypass(enabled bool) Builder {
	b.mergeBypass = enabled
	return b
}

// Validate checks the configuration.
func (b Builder) Validate() error {
	if b.freq <= 0 {
		return errors.New("frequency must be positive")
	}

	if b.partitionBytes <= 0 || b.partitionBytes%flit.LineBytes != 0 {
		return errors.Errorf("partition size %d is not a multiple of %d bytes",
			b.partitionBytes, flit.LineBytes)
	}

	if _, err := flit.NewAddressLayout(
		b.numNodes, b.partitionBytes/flit.LineBytes); err != nil {
		return errors.Wrap(err, "invalid address layout")
	}

	if _, err := routing.NewTopology(b.order()); err != nil {
		return errors.Wrap(err, "invalid ring order")
	}

	if len(b.order()) != b.numNodes {
		return errors.Errorf("ring order has %d nodes, want %d",
			len(b.order()), b.numNodes)
	}

	for name, depth := range map[string]int{
		"send buffer":    b.sendDepth,
		"merge buffer":   b.mergeDepth,
		"response queue": b.respDepth,
	} {
		if depth <= 0 {
			return errors.Errorf("%s depth must be positive, got %d", name, depth)
		}
	}

	if b.tagBits <= 0 || b.tagBits > 8 {
		return errors.Errorf("tag width must be within 1 to 8 bits, got %d",
			b.tagBits)
	}

	return nil
}

func (b Builder) order() []flit.NodeID {
	if b.ringOrder == nil {
		return routing.DefaultRingOrder(b.numNodes)
	}

	return b.ringOrder
}

// Build creates a router that is driven by calling Tick directly. It panics
// if the configuration is not valid.
func (b Builder) Build(name string) *Router {
	sim.NameMustBeValid(name)

	if err := b.Validate(); err != nil {
		log.Panic(err)
	}

	numLines := b.partitionBytes / flit.LineBytes
	layout, _ := flit.NewAddressLayout(b.numNodes, numLines)
	topo, _ := routing.NewTopology(b.order())

	r := &Router{
		name:        name,
		freq:        b.freq,
		layout:      layout,
		table:       routing.NewTable(topo),
		topo:        topo,
		tagBits:     b.tagBits,
		mergeBypass: b.mergeBypass,
		localArb:    arbitration.FixedPriority{},
	}

	for _, d := range routing.Directions {
		r.req[d] = newChannel(sim.BuildName(name, "Req"+d.String()), d, topo)
		r.rsp[d] = newChannel(sim.BuildName(name, "Rsp"+d.String()), d, topo)
	}

	for id := 0; id < b.numNodes; id++ {
		nid := flit.NodeID(id)
		n := newNode(name, nid, topo.Position(nid), b, numLines)
		n.port = &Port{router: r, node: n}

		r.nodes = append(r.nodes, n)
		r.ports = append(r.ports, n.port)
	}

	return r
}

// BuildComp creates a router wrapped in a component that is ticked by the
// engine.
func (b Builder) BuildComp(name string, engine sim.Engine) *Comp {
	r := b.Build(name)

	c := &Comp{router: r}
	c.TickingComponent = sim.NewSecondaryTickingComponent(
		sim.BuildName(name, "Ticker"), engine, b.freq, c)

	r.clock = func() uint64 {
		return c.Freq.Cycle(engine.CurrentTime())
	}

	for _, p := range r.ports {
		p.notify = c.TickNow
	}

	return c
}
