package routing

import "github.com/sarchlab/tmu/flit"

// Table is the immutable routing table of a ring. It is computed once from
// a topology and answers hop count and preferred direction queries for every
// ordered pair of nodes.
type Table struct {
	topology *Topology
	hopsCW   [][]int
	hopsCC   [][]int
}

// NewTable precomputes the routing table of a topology.
func NewTable(t *Topology) *Table {
	n := t.Size()
	table := &Table{
		topology: t,
		hopsCW:   make([][]int, n),
		hopsCC:   make([][]int, n),
	}

	for src := 0; src < n; src++ {
		table.hopsCW[src] = make([]int, n)
		table.hopsCC[src] = make([]int, n)

		for dst := 0; dst < n; dst++ {
			ps := t.Position(flit.NodeID(src))
			pd := t.Position(flit.NodeID(dst))

			table.hopsCW[src][dst] = ((pd-ps)%n + n) % n
			table.hopsCC[src][dst] = ((ps-pd)%n + n) % n
		}
	}

	return table
}

// Topology returns the topology the table is built on.
func (t *Table) Topology() *Topology {
	return t.topology
}

// HopsCW returns the number of clockwise hops from src to dst.
func (t *Table) HopsCW(src, dst flit.NodeID) int {
	return t.hopsCW[src][dst]
}

// HopsCC returns the number of counter-clockwise hops from src to dst.
func (t *Table) HopsCC(src, dst flit.NodeID) int {
	return t.hopsCC[src][dst]
}

// PreferCW tells if src reaches dst clockwise. Ties go clockwise.
func (t *Table) PreferCW(src, dst flit.NodeID) bool {
	return t.hopsCW[src][dst] <= t.hopsCC[src][dst]
}

// Direction returns the direction a flit from src to dst travels.
func (t *Table) Direction(src, dst flit.NodeID) Direction {
	if t.PreferCW(src, dst) {
		return CW
	}

	return CC
}

// Hops returns the number of hops along the preferred direction.
func (t *Table) Hops(src, dst flit.NodeID) int {
	return min(t.hopsCW[src][dst], t.hopsCC[src][dst])
}
