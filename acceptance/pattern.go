package acceptance

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/routing"
)

// Pattern decides which partition a request targets.
type Pattern string

// Supported traffic patterns.
const (
	PatternUniform  Pattern = "uniform"
	PatternNeighbor Pattern = "neighbor"
	PatternSelf     Pattern = "self"
	PatternHotspot  Pattern = "hotspot"
)

// Patterns lists every supported pattern.
var Patterns = []Pattern{
	PatternUniform, PatternNeighbor, PatternSelf, PatternHotspot,
}

// ParsePattern converts a pattern name.
func ParsePattern(s string) (Pattern, error) {
	for _, p := range Patterns {
		if string(p) == s {
			return p, nil
		}
	}

	return "", errors.Errorf("unknown traffic pattern %q", s)
}

// pickDst chooses the destination of the next request of src.
func (p Pattern) pickDst(
	src flit.NodeID,
	topo *routing.Topology,
	hotspot flit.NodeID,
	rng *rand.Rand,
) flit.NodeID {
	n := topo.Size()

	switch p {
	case PatternSelf:
		return src
	case PatternNeighbor:
		return topo.NodeAt(topo.DownstreamPos(topo.Position(src), routing.CW))
	case PatternHotspot:
		if rng.Intn(2) == 0 {
			return hotspot
		}

		return flit.NodeID(rng.Intn(n))
	default:
		return flit.NodeID(rng.Intn(n))
	}
}
