package ring

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tmu/flit"
)

var _ = Describe("TransactionLogger", func() {
	It("should log accepted requests and delivered responses", func() {
		r := MakeBuilder().Build("TMU")
		d := newDriver(r)

		buf := &bytes.Buffer{}
		r.AcceptHook(NewTransactionLogger(buf))

		d.enqueue(0, Request{
			Write:   true,
			Address: flit.DefaultLayout.Make(5, 2, 0),
			Tag:     0x55,
			Payload: flit.SeededLine(0xAA),
		})
		Expect(d.runUntilDelivered(1, 100)).To(BeTrue())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(Equal([]string{
			"cycle,event,node,tag,write,addr_or_word0,data_word0",
			"0,accept,0,85,1,0x2a00,0xaa00000000",
			"6,resp,0,85,1,0xaa00000000",
		}))
	})
})
