// Package ring implements the slotted bidirectional ring that connects the
// client ports of a TMU to the storage partitions of its nodes.
//
// A Router advances all its stations in lock step. Every Tick first computes
// the next state of every station from the current state only, and then
// commits all of it at once. Callers drive the ports between two ticks.
package ring

import (
	"github.com/sarchlab/tmu/arbitration"
	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/queueing"
	"github.com/sarchlab/tmu/routing"
	"github.com/sarchlab/tmu/sim"
	"github.com/sarchlab/tmu/tracing"
)

// Local delivery candidates, from the highest priority to the lowest.
const (
	candArrivalCW = iota
	candArrivalCC
	candSendCW
	candSendCC
	numCandidates
)

// Router is the top level of the ring. It owns the nodes, the four ring
// channels and the routing table.
type Router struct {
	sim.HookableBase

	name        string
	freq        sim.Freq
	cycle       uint64
	clock       func() uint64
	layout      flit.AddressLayout
	table       *routing.Table
	topo        *routing.Topology
	tagBits     int
	mergeBypass bool

	nodes    []*node
	req      [2]*channel
	rsp      [2]*channel
	ports    []*Port
	localArb arbitration.Arbiter

	counters Counters
	progress bool
}

// Name returns the name of the router.
func (r *Router) Name() string {
	return r.name
}

// Cycle returns the number of the cycle the router is in.
func (r *Router) Cycle() uint64 {
	r.syncClock()
	return r.cycle
}

// CurrentTime returns the start time of the current cycle.
func (r *Router) CurrentTime() sim.VTimeInSec {
	return sim.VTimeInSec(float64(r.Cycle()) / float64(r.freq))
}

// Layout returns the address layout.
func (r *Router) Layout() flit.AddressLayout {
	return r.layout
}

// Table returns the routing table.
func (r *Router) Table() *routing.Table {
	return r.table
}

// TagBits returns the width of request tags.
func (r *Router) TagBits() int {
	return r.tagBits
}

// NumNodes returns the number of nodes on the ring.
func (r *Router) NumNodes() int {
	return len(r.nodes)
}

// Port returns the client port of a node.
func (r *Router) Port(id flit.NodeID) *Port {
	return r.ports[id]
}

// SkipTo moves the cycle counter forward without changing any state. It
// is used when idle cycles are not simulated.
func (r *Router) SkipTo(cycle uint64) {
	if cycle > r.cycle {
		r.cycle = cycle
	}
}

func (r *Router) syncClock() {
	if r.clock != nil {
		r.SkipTo(r.clock())
	}
}

// Tick advances the ring by one cycle. It returns true if any flit moved.
func (r *Router) Tick() bool {
	r.syncClock()
	r.progress = false

	for _, n := range r.nodes {
		r.accessStorage(n)
	}

	r.computeRequestRing()
	r.computeResponseRing()
	r.commit()

	return r.progress
}

func (r *Router) accessStorage(n *node) {
	n.pipeDrains = false

	req := n.pipe
	if req == nil {
		return
	}

	dir := r.table.Direction(n.id, req.Src)

	q := n.respBuf[dir]
	if !q.CanPush() {
		r.counters.PipeStalls++
		return
	}

	index := r.layout.Index(req.Address)

	var payload flit.Line
	if req.Write {
		payload = req.Payload
		n.pendingWrite = &lineWrite{index: index, line: req.Payload}
		r.counters.StorageWrites++
	} else {
		payload = n.partition.Read(index)
		r.counters.StorageReads++
	}

	rsp := flit.MakeResponse(req, n.id, payload)
	q.Push(rsp)

	n.pipeDrains = true
	r.progress = true

	r.invoke(HookPosStorage, req,
		HookDetail{Node: n.id, Dir: dir, Response: rsp})
	tracing.AddTaskStep(req.ID, r, "storage")
}

func (r *Router) computeRequestRing() {
	sunk := r.newSunk()

	for _, n := range r.nodes {
		r.selectLocalRequest(n, sunk)
	}

	for _, d := range routing.Directions {
		held := r.req[d].resolveHolds(sunk[d])
		for _, n := range r.nodes {
			r.move(r.req[d], n.sendBuf[d], n, held)
		}
	}
}

func (r *Router) newSunk() [2][]bool {
	return [2][]bool{
		make([]bool, len(r.nodes)),
		make([]bool, len(r.nodes)),
	}
}

// selectLocalRequest picks at most one locally destined request and hands
// it to the holding register in front of the storage.
func (r *Router) selectLocalRequest(n *node, sunk [2][]bool) {
	n.pipeNext = nil
	if n.pipe != nil && !n.pipeDrains {
		n.pipeNext = n.pipe
		return
	}

	arrivals := [2]*flit.Flit{
		r.req[routing.CW].localArrival(n.pos),
		r.req[routing.CC].localArrival(n.pos),
	}
	heads := [2]*flit.Flit{
		headOf(n.sendBuf[routing.CW]),
		headOf(n.sendBuf[routing.CC]),
	}

	candidates := make([]bool, numCandidates)
	candidates[candArrivalCW] = arrivals[routing.CW] != nil
	candidates[candArrivalCC] = arrivals[routing.CC] != nil
	candidates[candSendCW] = heads[routing.CW] != nil && heads[routing.CW].Dst == n.id
	candidates[candSendCC] = heads[routing.CC] != nil && heads[routing.CC].Dst == n.id

	switch r.localArb.Grant(candidates) {
	case candArrivalCW:
		sunk[routing.CW][n.pos] = true
		n.pipeNext = arrivals[routing.CW]
	case candArrivalCC:
		sunk[routing.CC][n.pos] = true
		n.pipeNext = arrivals[routing.CC]
	case candSendCW:
		n.pipeNext = n.sendBuf[routing.CW].Pop().(*flit.Flit)
	case candSendCC:
		n.pipeNext = n.sendBuf[routing.CC].Pop().(*flit.Flit)
	default:
		return
	}

	r.counters.Ejected++
	r.progress = true
}

// move forwards the arrival of a station in one direction, or injects the
// head of the station's queue into the slot vacated in this cycle.
func (r *Router) move(
	ch *channel,
	queue queueing.Buffer,
	n *node,
	held []bool,
) {
	arrival := ch.arrival(n.pos)
	passing := arrival != nil && arrival.Dst != n.id
	outBlocked := held[r.topo.DownstreamPos(n.pos, ch.dir)]

	if held[n.pos] {
		ch.holdArrival(n.pos)
		r.counters.StallCycles++
	}

	if passing {
		if !held[n.pos] {
			ch.send(n.pos, arrival)
			r.counters.Forwarded++
			r.progress = true
		}

		return
	}

	if outBlocked {
		return
	}

	head := headOf(queue)
	if head == nil || head.Dst == n.id {
		return
	}

	queue.Pop()
	ch.send(n.pos, head)
	r.counters.Injected++
	r.progress = true

	r.invoke(HookPosInject, head, HookDetail{Node: n.id, Dir: ch.dir})
}

func (r *Router) computeResponseRing() {
	sunk := r.newSunk()

	for _, n := range r.nodes {
		r.absorbResponses(n, sunk)
	}

	for _, d := range routing.Directions {
		held := r.rsp[d].resolveHolds(sunk[d])
		for _, n := range r.nodes {
			r.move(r.rsp[d], n.respBuf[d], n, held)
		}
	}
}

// absorbResponses delivers a response to the consumer if it retrieved one,
// and moves locally destined responses into the merge buffers.
func (r *Router) absorbResponses(n *node, sunk [2][]bool) {
	arrivals := [2]*flit.Flit{
		r.rsp[routing.CW].localArrival(n.pos),
		r.rsp[routing.CC].localArrival(n.pos),
	}
	hadArrival := [2]bool{
		arrivals[routing.CW] != nil,
		arrivals[routing.CC] != nil,
	}

	if taken := n.port.retrieved; taken != nil {
		src := n.port.retrievedFrom

		if src.bypass {
			sunk[src.dir][n.pos] = true
			arrivals[src.dir] = nil
			r.counters.Bypassed++
		} else {
			n.mergeBuf[src.dir].Pop()
			n.advanceRR = true
		}

		r.counters.Delivered++
		r.progress = true

		r.invoke(HookPosDeliver, taken, HookDetail{Node: n.id, Dir: src.dir})
		tracing.EndTask(taken.ReqID, r)
	}

	for _, d := range routing.Directions {
		mgb := n.mergeBuf[d]

		if arrivals[d] != nil {
			if mgb.CanPush() {
				mgb.Push(arrivals[d])
				sunk[d][n.pos] = true
				r.progress = true
			}

			continue
		}

		if hadArrival[d] {
			continue
		}

		head := headOf(n.respBuf[d])
		if head != nil && head.Dst == n.id && mgb.CanPush() {
			n.respBuf[d].Pop()
			mgb.Push(head)
			r.progress = true
		}
	}
}

type offerSource struct {
	dir    routing.Direction
	bypass bool
}

// offer returns the response a node presents to its consumer in this cycle.
func (r *Router) offer(n *node) (*flit.Flit, offerSource) {
	nonEmpty := []bool{
		n.mergeBuf[routing.CW].Size() > 0,
		n.mergeBuf[routing.CC].Size() > 0,
	}

	if g := n.rr.Grant(nonEmpty); g >= 0 {
		dir := routing.Direction(g)
		return headOf(n.mergeBuf[dir]), offerSource{dir: dir}
	}

	if !r.mergeBypass {
		return nil, offerSource{}
	}

	cw := r.rsp[routing.CW].localArrival(n.pos)
	cc := r.rsp[routing.CC].localArrival(n.pos)

	switch {
	case cw != nil && cc == nil:
		return cw, offerSource{dir: routing.CW, bypass: true}
	case cc != nil && cw == nil:
		return cc, offerSource{dir: routing.CC, bypass: true}
	default:
		return nil, offerSource{}
	}
}

func (r *Router) commit() {
	for _, n := range r.nodes {
		n.commit()
	}

	for _, p := range r.ports {
		if p.accepted {
			r.progress = true
		}

		p.reset()
	}

	for _, d := range routing.Directions {
		r.req[d].commit()
		r.rsp[d].commit()
	}

	r.cycle++
}
