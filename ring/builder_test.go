package ring

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tmu/flit"
)

var _ = Describe("Builder", func() {
	It("should accept the default configuration", func() {
		Expect(MakeBuilder().Validate()).To(Succeed())

		r := MakeBuilder().Build("TMU")
		Expect(r.NumNodes()).To(Equal(8))
		Expect(r.Layout()).To(Equal(flit.DefaultLayout))
		Expect(r.Table().Topology().Order()).To(Equal(
			[]flit.NodeID{0, 1, 3, 5, 7, 6, 4, 2}))
	})

	It("should build smaller rings", func() {
		r := MakeBuilder().
			WithNumNodes(4).
			WithPartitionBytes(16 * flit.LineBytes).
			Build("TMU")

		Expect(r.NumNodes()).To(Equal(4))
		Expect(r.Layout().PipeBits).To(Equal(2))
		Expect(r.Layout().IndexBits).To(Equal(4))
	})

	DescribeTable("invalid configurations",
		func(b Builder) {
			Expect(b.Validate()).NotTo(Succeed())
			Expect(func() { b.Build("TMU") }).To(Panic())
		},
		Entry("node count not a power of two", MakeBuilder().WithNumNodes(6)),
		Entry("partition not made of lines", MakeBuilder().WithPartitionBytes(100)),
		Entry("zero send depth", MakeBuilder().WithSendBufferDepth(0)),
		Entry("zero merge depth", MakeBuilder().WithMergeBufferDepth(0)),
		Entry("zero response depth", MakeBuilder().WithResponseQueueDepth(0)),
		Entry("tags too wide", MakeBuilder().WithTagBits(9)),
		Entry("zero frequency", MakeBuilder().WithFreq(0)),
		Entry("ring order with a repeated node",
			MakeBuilder().WithRingOrder(
				[]flit.NodeID{0, 1, 2, 3, 4, 5, 6, 6})),
		Entry("ring order missing nodes",
			MakeBuilder().WithRingOrder([]flit.NodeID{0, 1, 2, 3})),
	)

	It("should follow a custom ring order", func() {
		order := []flit.NodeID{0, 1, 2, 3, 4, 5, 6, 7}
		r := MakeBuilder().WithRingOrder(order).Build("TMU")

		Expect(r.Table().Hops(0, 7)).To(Equal(1))
		Expect(r.NodeStatus(3).Position).To(Equal(3))
	})

	It("should panic on an invalid name", func() {
		Expect(func() { MakeBuilder().Build("tmu") }).To(Panic())
	})
})
