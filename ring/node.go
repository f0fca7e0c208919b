package ring

import (
	"github.com/sarchlab/tmu/arbitration"
	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/queueing"
	"github.com/sarchlab/tmu/routing"
	"github.com/sarchlab/tmu/sim"
	"github.com/sarchlab/tmu/storage"
)

type lineWrite struct {
	index uint32
	line  flit.Line
}

// A node is one ring station. It owns a storage partition, a send buffer, a
// response queue and a merge buffer per direction, and the one-cycle holding
// register in front of its storage.
type node struct {
	id   flit.NodeID
	pos  int
	name string

	sendBuf  [2]queueing.Buffer
	respBuf  [2]queueing.Buffer
	mergeBuf [2]queueing.Buffer

	rr        *arbitration.RoundRobin
	partition *storage.Partition
	port      *Port

	pipe         *flit.Flit
	pipeNext     *flit.Flit
	pipeDrains   bool
	pendingWrite *lineWrite
	advanceRR    bool
}

func newNode(
	parent string,
	id flit.NodeID,
	pos int,
	spec Builder,
	numLines int,
) *node {
	name := sim.BuildNameWithIndex(parent, "Node", int(id))
	n := &node{
		id:        id,
		pos:       pos,
		name:      name,
		rr:        arbitration.NewRoundRobin(2),
		partition: storage.NewPartition(numLines),
	}

	for _, d := range routing.Directions {
		n.sendBuf[d] = queueing.NewBuffer(
			sim.BuildName(name, "Send"+d.String()), spec.sendDepth)
		n.respBuf[d] = queueing.NewBuffer(
			sim.BuildName(name, "Resp"+d.String()), spec.respDepth)
		n.mergeBuf[d] = queueing.NewBuffer(
			sim.BuildName(name, "Merge"+d.String()), spec.mergeDepth)
	}

	return n
}

// pipeCanAccept tells if the holding register is free at the end of this
// cycle.
func (n *node) pipeCanAccept() bool {
	return n.pipe == nil || n.pipeDrains
}

func (n *node) buffers() []queueing.Buffer {
	return []queueing.Buffer{
		n.sendBuf[routing.CW], n.sendBuf[routing.CC],
		n.respBuf[routing.CW], n.respBuf[routing.CC],
		n.mergeBuf[routing.CW], n.mergeBuf[routing.CC],
	}
}

func headOf(b queueing.Buffer) *flit.Flit {
	e := b.Peek()
	if e == nil {
		return nil
	}

	return e.(*flit.Flit)
}

func (n *node) commit() {
	for _, b := range n.buffers() {
		b.Commit()
	}

	if n.pendingWrite != nil {
		n.partition.Write(n.pendingWrite.index, n.pendingWrite.line)
		n.pendingWrite = nil
	}

	n.pipe = n.pipeNext
	n.pipeNext = nil
	n.pipeDrains = false

	if n.advanceRR {
		n.rr.Advance()
		n.advanceRR = false
	}
}
