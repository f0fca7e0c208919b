package ring

import (
	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/routing"
	"github.com/sarchlab/tmu/sim"
)

// Hook positions invoked by the Router. The hook item is always the flit
// involved and the detail is a HookDetail.
var (
	// HookPosAccept marks a request accepted from a port.
	HookPosAccept = &sim.HookPos{Name: "TMU Accept"}

	// HookPosInject marks a flit placed on a ring from a station's queue.
	HookPosInject = &sim.HookPos{Name: "TMU Inject"}

	// HookPosStorage marks a request servicing its storage access. The
	// response is in HookDetail.Response.
	HookPosStorage = &sim.HookPos{Name: "TMU Storage"}

	// HookPosDeliver marks a response handed to the consumer of a port.
	HookPosDeliver = &sim.HookPos{Name: "TMU Deliver"}
)

// HookDetail describes where and when a hook was triggered.
type HookDetail struct {
	Cycle    uint64
	Node     flit.NodeID
	Dir      routing.Direction
	Response *flit.Flit
}

func (r *Router) invoke(pos *sim.HookPos, f *flit.Flit, detail HookDetail) {
	if r.NumHooks() == 0 {
		return
	}

	detail.Cycle = r.cycle

	r.InvokeHook(sim.HookCtx{
		Domain: r,
		Pos:    pos,
		Item:   f,
		Detail: detail,
	})
}
