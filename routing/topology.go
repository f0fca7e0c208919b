// Package routing provides the static ring adjacency and the routing table
// derived from it.
package routing

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/tmu/flit"
)

// Direction is one of the two ring directions.
type Direction int

// Ring directions. Clockwise moves a flit to the next ring position.
const (
	CW Direction = iota
	CC
)

// Directions lists both directions in priority order.
var Directions = [2]Direction{CW, CC}

func (d Direction) String() string {
	if d == CW {
		return "CW"
	}

	return "CC"
}

// MarshalText renders the direction as CW or CC.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	return 1 - d
}

// Topology places the nodes on a ring.
type Topology struct {
	order    []flit.NodeID
	position []int
}

// DefaultRingOrder returns the adjacency used by default: node 0, the odd
// nodes ascending, then the even nodes descending. For 8 nodes this is
// 0 1 3 5 7 6 4 2.
func DefaultRingOrder(numNodes int) []flit.NodeID {
	order := []flit.NodeID{0}

	for n := 1; n < numNodes; n += 2 {
		order = append(order, flit.NodeID(n))
	}

	last := numNodes - 1
	if last%2 == 1 {
		last--
	}

	for n := last; n > 0; n -= 2 {
		order = append(order, flit.NodeID(n))
	}

	return order
}

// NewTopology creates a topology from a ring order. The order must be a
// permutation of 0..n-1.
func NewTopology(order []flit.NodeID) (*Topology, error) {
	if len(order) == 0 {
		return nil, errors.New("ring order is empty")
	}

	t := &Topology{
		order:    append([]flit.NodeID(nil), order...),
		position: make([]int, len(order)),
	}

	for i := range t.position {
		t.position[i] = -1
	}

	for pos, id := range order {
		if id < 0 || int(id) >= len(order) {
			return nil, errors.Errorf("node %d out of range in ring order", id)
		}

		if t.position[id] >= 0 {
			return nil, errors.Errorf("node %d appears twice in ring order", id)
		}

		t.position[id] = pos
	}

	return t, nil
}

// Size returns the number of nodes.
func (t *Topology) Size() int {
	return len(t.order)
}

// Order returns a copy of the ring order.
func (t *Topology) Order() []flit.NodeID {
	return append([]flit.NodeID(nil), t.order...)
}

// Position returns the ring position of a node.
func (t *Topology) Position(id flit.NodeID) int {
	return t.position[id]
}

// NodeAt returns the node at a ring position.
func (t *Topology) NodeAt(pos int) flit.NodeID {
	return t.order[t.wrap(pos)]
}

// DownstreamPos returns the position a flit moves to from pos.
func (t *Topology) DownstreamPos(pos int, d Direction) int {
	if d == CW {
		return t.wrap(pos + 1)
	}

	return t.wrap(pos - 1)
}

// UpstreamPos returns the position a flit arrives from at pos.
func (t *Topology) UpstreamPos(pos int, d Direction) int {
	return t.DownstreamPos(pos, d.Opposite())
}

func (t *Topology) wrap(pos int) int {
	n := len(t.order)
	return ((pos % n) + n) % n
}
