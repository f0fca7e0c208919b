package flit

import (
	"fmt"
	"math/bits"

	"github.com/pkg/errors"
)

// NodeID identifies both a client port and the storage partition it owns.
type NodeID int

// Address is a line address: index | pipe | offset, from MSB to LSB.
type Address uint32

// LineBytes is the size of a line.
const LineBytes = 256

// AddressLayout describes the widths of the address fields.
type AddressLayout struct {
	OffsetBits int
	PipeBits   int
	IndexBits  int
}

// DefaultLayout is the layout of an 8-node ring with 512 lines per
// partition.
var DefaultLayout = AddressLayout{OffsetBits: 8, PipeBits: 3, IndexBits: 9}

// NewAddressLayout derives the layout from the number of nodes and the
// number of lines in each partition. Both must be powers of two.
func NewAddressLayout(numNodes, linesPerPartition int) (AddressLayout, error) {
	if !isPowerOfTwo(numNodes) {
		return AddressLayout{}, errors.Errorf(
			"number of nodes %d is not a power of two", numNodes)
	}

	if !isPowerOfTwo(linesPerPartition) {
		return AddressLayout{}, errors.Errorf(
			"lines per partition %d is not a power of two", linesPerPartition)
	}

	l := AddressLayout{
		OffsetBits: bits.TrailingZeros(LineBytes),
		PipeBits:   bits.TrailingZeros(uint(numNodes)),
		IndexBits:  bits.TrailingZeros(uint(linesPerPartition)),
	}

	if l.Width() > 32 {
		return AddressLayout{}, errors.Errorf(
			"address needs %d bits, more than 32", l.Width())
	}

	return l, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Width returns the number of bits of an address.
func (l AddressLayout) Width() int {
	return l.OffsetBits + l.PipeBits + l.IndexBits
}

// Make composes an address. Fields wider than the layout are truncated.
func (l AddressLayout) Make(index uint32, pipe NodeID, offset uint32) Address {
	a := uint32(offset) & mask(l.OffsetBits)
	a |= (uint32(pipe) & mask(l.PipeBits)) << l.OffsetBits
	a |= (index & mask(l.IndexBits)) << (l.OffsetBits + l.PipeBits)

	return Address(a)
}

// Pipe returns the node that owns the address.
func (l AddressLayout) Pipe(a Address) NodeID {
	return NodeID((uint32(a) >> l.OffsetBits) & mask(l.PipeBits))
}

// Index returns the line index within the owning partition.
func (l AddressLayout) Index(a Address) uint32 {
	return (uint32(a) >> (l.OffsetBits + l.PipeBits)) & mask(l.IndexBits)
}

// Offset returns the byte offset within the line.
func (l AddressLayout) Offset(a Address) uint32 {
	return uint32(a) & mask(l.OffsetBits)
}

// Format renders the address as index:pipe:offset.
func (l AddressLayout) Format(a Address) string {
	return fmt.Sprintf("%d:%d:%d", l.Index(a), l.Pipe(a), l.Offset(a))
}

func mask(width int) uint32 {
	return uint32(1)<<width - 1
}
