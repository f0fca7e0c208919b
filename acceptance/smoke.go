package acceptance

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/ring"
)

// SmokeResult is the outcome of a directed smoke test.
type SmokeResult struct {
	Transactions int
	Cycles       uint64
	Violations   []Violation
}

// Passed tells if every transaction returned the expected response.
func (r SmokeResult) Passed() bool {
	return len(r.Violations) == 0
}

// SmokeTest drives a router directly with one request at a time and checks
// every response. Each node first writes and reads back a line in its own
// partition. Node 0 then accesses line 5 of node 2. Finally every node
// accesses the partition two nodes after it. The router must have 8-bit
// tags and at least 16 more lines per partition than nodes.
func SmokeTest(r *ring.Router) (SmokeResult, error) {
	n := r.NumNodes()

	if r.TagBits() != 8 {
		return SmokeResult{}, errors.Errorf(
			"smoke test needs 8-bit tags, the router has %d", r.TagBits())
	}

	if 1<<r.Layout().IndexBits < 16+n {
		return SmokeResult{}, errors.Errorf(
			"smoke test needs %d lines per partition", 16+n)
	}

	b := &bench{router: r, timeout: DefaultTimeout}
	start := r.Cycle()

	for id := 0; id < n; id++ {
		node := flit.NodeID(id)
		addr := r.Layout().Make(uint32(id), node, 0)
		b.writeThenRead(node, addr, uint8(id), 0x80|uint8(id),
			flit.SeededLine(uint32(id+1)))
	}

	if n > 2 {
		addr := r.Layout().Make(5, 2, 0)
		b.writeThenRead(0, addr, 0x55, 0x56, flit.SeededLine(0xAA))
	}

	for id := 0; id < n; id++ {
		node := flit.NodeID(id)
		dst := flit.NodeID((id + 2) % n)
		addr := r.Layout().Make(uint32(16+id), dst, 0)
		b.writeThenRead(node, addr, 0x20+uint8(id), 0xA0+uint8(id),
			flit.SeededLine(uint32(0x100+id)))
	}

	b.result.Cycles = r.Cycle() - start

	return b.result, nil
}

type bench struct {
	router  *ring.Router
	timeout uint64
	result  SmokeResult
}

func (b *bench) writeThenRead(
	node flit.NodeID,
	addr flit.Address,
	writeTag, readTag uint8,
	data flit.Line,
) {
	b.transact(node,
		ring.Request{Write: true, Address: addr, Tag: writeTag, Payload: data},
		data)
	b.transact(node,
		ring.Request{Address: addr, Tag: readTag},
		data)
}

func (b *bench) transact(node flit.NodeID, req ring.Request, expect flit.Line) {
	b.result.Transactions++

	if !b.sendReq(node, req) {
		return
	}

	b.waitResp(node, req, expect)
}

func (b *bench) sendReq(node flit.NodeID, req ring.Request) bool {
	p := b.router.Port(node)

	for waited := uint64(0); waited < b.timeout; waited++ {
		accepted := p.Send(req)
		b.router.Tick()

		if accepted {
			return true
		}
	}

	b.violate(node, req.Tag, "request not accepted")

	return false
}

func (b *bench) waitResp(node flit.NodeID, req ring.Request, expect flit.Line) {
	p := b.router.Port(node)

	for waited := uint64(0); waited < b.timeout; waited++ {
		rsp := p.RetrieveResponse()
		b.router.Tick()

		if rsp != nil {
			b.check(node, req, rsp, expect)
			return
		}
	}

	b.violate(node, req.Tag,
		fmt.Sprintf("no response after %d cycles", b.timeout))
}

func (b *bench) check(
	node flit.NodeID,
	req ring.Request,
	rsp *ring.Response,
	expect flit.Line,
) {
	if rsp.Tag != req.Tag {
		b.violate(node, req.Tag,
			fmt.Sprintf("response carries tag 0x%02x", rsp.Tag))
	}

	if rsp.Write != req.Write {
		b.violate(node, req.Tag,
			fmt.Sprintf("response write flag is %t", rsp.Write))
	}

	dst := b.router.Layout().Pipe(req.Address)
	if rsp.Src != dst {
		b.violate(node, req.Tag, fmt.Sprintf(
			"response is from node %d, expected %d", rsp.Src, dst))
	}

	if rsp.Payload != expect {
		b.violate(node, req.Tag, "payload mismatch")
	}
}

func (b *bench) violate(node flit.NodeID, tag uint8, reason string) {
	b.result.Violations = append(b.result.Violations, Violation{
		Cycle:  b.router.Cycle(),
		Node:   node,
		Tag:    tag,
		Reason: reason,
	})
}
