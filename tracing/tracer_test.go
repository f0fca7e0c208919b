package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/tmu/sim"
)

type testDomain struct {
	*sim.HookableBase
	name string
}

func (d *testDomain) Name() string {
	return d.name
}

func newTestDomain() *testDomain {
	return &testDomain{
		HookableBase: sim.NewHookableBase(),
		name:         "Ring.Node[0]",
	}
}

var _ = Describe("CollectTrace", func() {
	var (
		mockCtrl *gomock.Controller
		tracer   *MockTracer
		domain   *testDomain
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		tracer = NewMockTracer(mockCtrl)
		domain = newTestDomain()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not notify anything without a tracer", func() {
		Expect(func() {
			StartTask("", "", domain, "", "", nil)
		}).NotTo(Panic())
	})

	It("should forward task events to the tracer", func() {
		CollectTrace(domain, tracer)

		tracer.EXPECT().StartTask(gomock.Any()).Do(func(task Task) {
			Expect(task.ID).To(Equal("1"))
			Expect(task.Kind).To(Equal("req"))
			Expect(task.What).To(Equal("read"))
			Expect(task.Location).To(Equal("Ring.Node[0]"))
		})
		tracer.EXPECT().StepTask(gomock.Any()).Do(func(task Task) {
			Expect(task.ID).To(Equal("1"))
			Expect(task.Steps).To(HaveLen(1))
			Expect(task.Steps[0].What).To(Equal("inject"))
		})
		tracer.EXPECT().EndTask(gomock.Any()).Do(func(task Task) {
			Expect(task.ID).To(Equal("1"))
		})

		StartTask("1", "", domain, "req", "read", nil)
		AddTaskStep("1", domain, "inject")
		EndTask("1", domain)
	})

	It("should use the specific location", func() {
		CollectTrace(domain, tracer)

		tracer.EXPECT().StartTask(gomock.Any()).Do(func(task Task) {
			Expect(task.Location).To(Equal("Ring.Node[3]"))
		})

		StartTaskWithSpecificLocation(
			"1", "", domain, "req", "write", "Ring.Node[3]", nil)
	})

	It("should panic if a required field is missing", func() {
		CollectTrace(domain, tracer)

		Expect(func() {
			StartTask("1", "", domain, "", "read", nil)
		}).To(Panic())
	})

	It("should panic if the same tracer is attached twice", func() {
		CollectTrace(domain, tracer)

		Expect(func() { CollectTrace(domain, tracer) }).To(Panic())
	})
})

var _ = Describe("KindIs", func() {
	It("should select tasks by kind", func() {
		filter := KindIs("req")

		Expect(filter(Task{Kind: "req"})).To(BeTrue())
		Expect(filter(Task{Kind: "rsp"})).To(BeFalse())
	})
})
