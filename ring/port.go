package ring

import (
	"log"

	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/routing"
	"github.com/sarchlab/tmu/tracing"
)

// Request is what a client presents on the request side of a port.
type Request struct {
	Write   bool
	Address flit.Address
	Tag     uint8
	Payload flit.Line
}

// Response is what a port presents to its consumer.
type Response struct {
	Write   bool
	Src     flit.NodeID
	Tag     uint8
	Payload flit.Line
}

// A Port is the client interface of one node. A transfer happens when the
// client offers and the port is ready in the same cycle, on either side.
type Port struct {
	router *Router
	node   *node
	notify func()

	accepted      bool
	retrieved     *flit.Flit
	retrievedFrom offerSource
}

// ID returns the node the port belongs to.
func (p *Port) ID() flit.NodeID {
	return p.node.id
}

// CanSend tells if a request to the address would be accepted in this
// cycle.
func (p *Port) CanSend(addr flit.Address) bool {
	p.router.syncClock()

	if p.accepted {
		return false
	}

	return p.node.sendBuf[p.direction(addr)].CanPush()
}

func (p *Port) direction(addr flit.Address) routing.Direction {
	return p.router.table.Direction(p.node.id, p.router.layout.Pipe(addr))
}

// Send offers a request. It returns true if the request is accepted. A
// rejected request must be offered again in a later cycle.
func (p *Port) Send(req Request) bool {
	if int(req.Tag)>>p.router.tagBits != 0 {
		log.Panicf("tag 0x%x does not fit in %d bits", req.Tag, p.router.tagBits)
	}

	if !p.CanSend(req.Address) {
		p.router.counters.Rejected++
		return false
	}

	b := flit.FlitBuilder{}.
		WithSrc(p.node.id).
		WithDst(p.router.layout.Pipe(req.Address)).
		WithTag(req.Tag).
		WithAddress(req.Address)
	if req.Write {
		b = b.AsWrite().WithPayload(req.Payload)
	}

	f := b.Build()
	dir := p.direction(req.Address)
	p.node.sendBuf[dir].Push(f)
	p.accepted = true
	p.router.counters.Accepted++

	what := "read"
	if f.Write {
		what = "write"
	}

	tracing.StartTaskWithSpecificLocation(
		f.ID, "", p.router, "req", what, p.node.name, f)
	p.router.invoke(HookPosAccept, f, HookDetail{Node: p.node.id})

	p.wake()

	return true
}

// PeekResponse returns the response presented in this cycle without taking
// it, or nil if there is none.
func (p *Port) PeekResponse() *Response {
	p.router.syncClock()

	if p.retrieved != nil {
		return nil
	}

	f, _ := p.router.offer(p.node)

	return toResponse(f)
}

// RetrieveResponse takes the response presented in this cycle. It returns
// nil if there is none.
func (p *Port) RetrieveResponse() *Response {
	p.router.syncClock()

	if p.retrieved != nil {
		return nil
	}

	f, src := p.router.offer(p.node)
	if f == nil {
		return nil
	}

	p.retrieved = f
	p.retrievedFrom = src
	p.wake()

	return toResponse(f)
}

func (p *Port) wake() {
	if p.notify != nil {
		p.notify()
	}
}

func (p *Port) reset() {
	p.accepted = false
	p.retrieved = nil
	p.retrievedFrom = offerSource{}
}

func toResponse(f *flit.Flit) *Response {
	if f == nil {
		return nil
	}

	return &Response{
		Write:   f.Write,
		Src:     f.Src,
		Tag:     f.Tag,
		Payload: f.Payload,
	}
}
