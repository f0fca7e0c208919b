package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Naming", func() {
	DescribeTable("valid names",
		func(name string) {
			Expect(func() { NameMustBeValid(name) }).NotTo(Panic())
		},
		Entry("single element", "TMU"),
		Entry("hierarchy", "TMU.Node.SendCW"),
		Entry("indexed", "TMU.Node[3].MergeCC"),
		Entry("multi-indexed", "Grid[1][2]"),
	)

	DescribeTable("invalid names",
		func(name string) {
			Expect(func() { NameMustBeValid(name) }).To(Panic())
		},
		Entry("empty element", "TMU..Node"),
		Entry("trailing dot", "TMU."),
		Entry("lower case", "TMU.node"),
		Entry("underscore", "TMU.Send_CW"),
		Entry("unmatched bracket", "TMU.Node[3"),
		Entry("non-integer index", "TMU.Node[a]"),
	)

	It("should build names", func() {
		Expect(BuildName("", "TMU")).To(Equal("TMU"))
		Expect(BuildName("TMU", "Port")).To(Equal("TMU.Port"))
		Expect(BuildNameWithIndex("TMU", "Node", 7)).To(Equal("TMU.Node[7]"))
	})
})
