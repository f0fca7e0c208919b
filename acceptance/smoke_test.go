package acceptance

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tmu/ring"
)

var _ = Describe("SmokeTest", func() {
	It("should pass on the default ring", func() {
		r := ring.MakeBuilder().Build("TMU")

		result, err := SmokeTest(r)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Passed()).To(BeTrue(), "%v", result.Violations)
		Expect(result.Transactions).To(Equal(34))
		Expect(result.Cycles).To(Equal(uint64(222)))
		Expect(r.InFlight()).To(BeZero())
	})

	It("should pass with the merge bypass", func() {
		r := ring.MakeBuilder().WithMergeBypass(true).Build("TMU")

		result, err := SmokeTest(r)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Passed()).To(BeTrue())
		Expect(r.Counters().Bypassed).NotTo(BeZero())
	})

	It("should log one accept and one response per transaction", func() {
		r := ring.MakeBuilder().WithNumNodes(4).Build("TMU")
		buf := new(bytes.Buffer)
		r.AcceptHook(ring.NewTransactionLogger(buf))

		result, err := SmokeTest(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Passed()).To(BeTrue())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		accepts, responses := 0, 0

		for _, l := range lines[1:] {
			switch strings.Split(l, ",")[1] {
			case "accept":
				accepts++
			case "resp":
				responses++
			}
		}

		Expect(accepts).To(Equal(result.Transactions))
		Expect(responses).To(Equal(result.Transactions))
	})

	It("should refuse routers it cannot exercise", func() {
		_, err := SmokeTest(ring.MakeBuilder().WithTagBits(4).Build("TMU"))
		Expect(err).To(HaveOccurred())

		_, err = SmokeTest(ring.MakeBuilder().
			WithNumNodes(4).WithPartitionBytes(16 * 256).Build("TMU"))
		Expect(err).To(HaveOccurred())
	})
})
