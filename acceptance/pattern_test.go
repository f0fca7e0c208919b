package acceptance

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/routing"
)

var _ = Describe("Pattern", func() {
	var (
		topo *routing.Topology
		rng  *rand.Rand
	)

	BeforeEach(func() {
		var err error
		topo, err = routing.NewTopology(routing.DefaultRingOrder(8))
		Expect(err).NotTo(HaveOccurred())

		rng = rand.New(rand.NewSource(1))
	})

	It("should parse every pattern name", func() {
		for _, p := range Patterns {
			parsed, err := ParsePattern(string(p))
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(p))
		}

		_, err := ParsePattern("ring")
		Expect(err).To(HaveOccurred())
	})

	It("should target the node itself", func() {
		for i := 0; i < 10; i++ {
			Expect(PatternSelf.pickDst(3, topo, 0, rng)).
				To(Equal(flit.NodeID(3)))
		}
	})

	It("should target the clockwise neighbor", func() {
		Expect(PatternNeighbor.pickDst(0, topo, 0, rng)).
			To(Equal(flit.NodeID(1)))
		Expect(PatternNeighbor.pickDst(7, topo, 0, rng)).
			To(Equal(flit.NodeID(6)))
		Expect(PatternNeighbor.pickDst(2, topo, 0, rng)).
			To(Equal(flit.NodeID(0)))
	})

	It("should send about half of the traffic to the hotspot", func() {
		hits := 0
		for i := 0; i < 1000; i++ {
			if PatternHotspot.pickDst(0, topo, 5, rng) == 5 {
				hits++
			}
		}

		Expect(hits).To(BeNumerically(">", 450))
	})

	It("should spread uniform traffic over all nodes", func() {
		seen := make(map[flit.NodeID]bool)
		for i := 0; i < 200; i++ {
			seen[PatternUniform.pickDst(0, topo, 0, rng)] = true
		}

		Expect(seen).To(HaveLen(8))
	})
})
