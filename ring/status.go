package ring

import (
	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/queueing"
	"github.com/sarchlab/tmu/routing"
)

// Counters accumulate the activity of a router since it was built.
type Counters struct {
	Accepted      uint64 `json:"accepted"`
	Rejected      uint64 `json:"rejected"`
	Injected      uint64 `json:"injected"`
	Forwarded     uint64 `json:"forwarded"`
	Ejected       uint64 `json:"ejected"`
	StorageReads  uint64 `json:"storage_reads"`
	StorageWrites uint64 `json:"storage_writes"`
	Delivered     uint64 `json:"delivered"`
	Bypassed      uint64 `json:"bypassed"`
	StallCycles   uint64 `json:"stall_cycles"`
	PipeStalls    uint64 `json:"pipe_stalls"`
}

// NodeStatus is the occupancy of the queues of a node.
type NodeStatus struct {
	Node     flit.NodeID `json:"node"`
	Position int         `json:"position"`
	SendCW   int         `json:"send_cw"`
	SendCC   int         `json:"send_cc"`
	RespCW   int         `json:"resp_cw"`
	RespCC   int         `json:"resp_cc"`
	MergeCW  int         `json:"merge_cw"`
	MergeCC  int         `json:"merge_cc"`
	PipeBusy bool        `json:"pipe_busy"`

	// NextMerge is the direction served first when both merge buffers hold
	// responses.
	NextMerge routing.Direction `json:"next_merge"`
}

// LinkStatus is the content of one link register.
type LinkStatus struct {
	Ring     string            `json:"ring"`
	Dir      routing.Direction `json:"dir"`
	Position int               `json:"position"`
	Owner    flit.NodeID       `json:"owner"`
	Occupied bool              `json:"occupied"`
	Src      flit.NodeID       `json:"src"`
	Dst      flit.NodeID       `json:"dst"`
	Tag      uint8             `json:"tag"`
	Write    bool              `json:"write"`
}

// Counters returns a copy of the activity counters.
func (r *Router) Counters() Counters {
	return r.counters
}

// NodeStatus returns the queue occupancy of a node.
func (r *Router) NodeStatus(id flit.NodeID) NodeStatus {
	n := r.nodes[id]

	return NodeStatus{
		Node:      n.id,
		Position:  n.pos,
		SendCW:    n.sendBuf[routing.CW].Size(),
		SendCC:    n.sendBuf[routing.CC].Size(),
		RespCW:    n.respBuf[routing.CW].Size(),
		RespCC:    n.respBuf[routing.CC].Size(),
		MergeCW:   n.mergeBuf[routing.CW].Size(),
		MergeCC:   n.mergeBuf[routing.CC].Size(),
		PipeBusy:  n.pipe != nil,
		NextMerge: routing.Direction(n.rr.Next()),
	}
}

// NodeStatuses returns the status of every node, ordered by node ID.
func (r *Router) NodeStatuses() []NodeStatus {
	s := make([]NodeStatus, len(r.nodes))
	for i := range r.nodes {
		s[i] = r.NodeStatus(flit.NodeID(i))
	}

	return s
}

// Links returns the content of every link register of the four channels.
func (r *Router) Links() []LinkStatus {
	var links []LinkStatus

	for _, ring := range []struct {
		name string
		chs  [2]*channel
	}{{"req", r.req}, {"rsp", r.rsp}} {
		for _, d := range routing.Directions {
			for pos, f := range ring.chs[d].slots {
				l := LinkStatus{
					Ring:     ring.name,
					Dir:      d,
					Position: pos,
					Owner:    r.topo.NodeAt(pos),
				}

				if f != nil {
					l.Occupied = true
					l.Src = f.Src
					l.Dst = f.Dst
					l.Tag = f.Tag
					l.Write = f.Write
				}

				links = append(links, l)
			}
		}
	}

	return links
}

// InFlight returns the number of flits held anywhere in the router.
func (r *Router) InFlight() int {
	count := 0

	for _, n := range r.nodes {
		for _, b := range n.buffers() {
			count += b.Size()
		}

		if n.pipe != nil {
			count++
		}
	}

	for _, d := range routing.Directions {
		count += r.req[d].occupancy() + r.rsp[d].occupancy()
	}

	return count
}

// Buffers returns all the buffers of the router.
func (r *Router) Buffers() []queueing.Buffer {
	var bufs []queueing.Buffer
	for _, n := range r.nodes {
		bufs = append(bufs, n.buffers()...)
	}

	return bufs
}

// PartitionAccesses returns the storage reads and writes of a node.
func (r *Router) PartitionAccesses(id flit.NodeID) (reads, writes uint64) {
	return r.nodes[id].partition.Accesses()
}
