// Package flit defines the unit moved by the ring and its addressing.
package flit

import (
	"fmt"

	"github.com/sarchlab/tmu/sim"
)

// Kind tells requests from responses.
type Kind int

// Kinds of flits.
const (
	KindRequest Kind = iota
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "req"
	case KindResponse:
		return "rsp"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Flit is the smallest unit moved by the ring: one request or one response.
// The tag is never inspected by the fabric.
type Flit struct {
	ID      string
	Kind    Kind
	Write   bool
	Src     NodeID
	Dst     NodeID
	Tag     uint8
	Address Address
	Payload Line

	// ReqID links a response to the request that produced it.
	ReqID string
}

func (f *Flit) String() string {
	op := "read"
	if f.Write {
		op = "write"
	}

	return fmt.Sprintf("%s %s %d->%d tag 0x%02x", f.Kind, op, f.Src, f.Dst, f.Tag)
}

// FlitBuilder builds request flits.
type FlitBuilder struct {
	write   bool
	src     NodeID
	dst     NodeID
	tag     uint8
	address Address
	payload Line
}

// WithSrc sets the requesting node.
func (b FlitBuilder) WithSrc(src NodeID) FlitBuilder {
	b.src = src
	return b
}

// WithDst sets the node that owns the address.
func (b FlitBuilder) WithDst(dst NodeID) FlitBuilder {
	b.dst = dst
	return b
}

// WithTag sets the tag.
func (b FlitBuilder) WithTag(tag uint8) FlitBuilder {
	b.tag = tag
	return b
}

// WithAddress sets the address.
func (b FlitBuilder) WithAddress(a Address) FlitBuilder {
	b.address = a
	return b
}

// WithPayload sets the data to write.
func (b FlitBuilder) WithPayload(p Line) FlitBuilder {
	b.payload = p
	return b
}

// AsWrite marks the request as a write.
func (b FlitBuilder) AsWrite() FlitBuilder {
	b.write = true
	return b
}

// Build creates a new request flit.
func (b FlitBuilder) Build() *Flit {
	return &Flit{
		ID:      sim.GetIDGenerator().Generate(),
		Kind:    KindRequest,
		Write:   b.write,
		Src:     b.src,
		Dst:     b.dst,
		Tag:     b.tag,
		Address: b.address,
		Payload: b.payload,
	}
}

// MakeResponse creates the response of a request serviced by the given node.
func MakeResponse(req *Flit, servicedBy NodeID, payload Line) *Flit {
	return &Flit{
		ID:      sim.GetIDGenerator().Generate(),
		Kind:    KindResponse,
		Write:   req.Write,
		Src:     servicedBy,
		Dst:     req.Src,
		Tag:     req.Tag,
		Address: req.Address,
		Payload: payload,
		ReqID:   req.ID,
	}
}
