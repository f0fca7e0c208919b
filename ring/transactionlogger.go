package ring

import (
	"fmt"
	"io"

	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/sim"
)

// TransactionLogger is a hook that writes one CSV row for every request
// accepted and every response delivered by a router.
type TransactionLogger struct {
	w io.Writer
}

// NewTransactionLogger creates a TransactionLogger and writes the header.
func NewTransactionLogger(w io.Writer) *TransactionLogger {
	fmt.Fprintln(w, "cycle,event,node,tag,write,addr_or_word0,data_word0")

	return &TransactionLogger{w: w}
}

// Func writes a row for accept and deliver events.
func (l *TransactionLogger) Func(ctx sim.HookCtx) {
	f, ok := ctx.Item.(*flit.Flit)
	if !ok {
		return
	}

	detail, _ := ctx.Detail.(HookDetail)

	switch ctx.Pos {
	case HookPosAccept:
		fmt.Fprintf(l.w, "%d,accept,%d,%d,%d,0x%x,0x%x\n",
			detail.Cycle, detail.Node, f.Tag, boolBit(f.Write),
			uint32(f.Address), f.Payload[0])
	case HookPosDeliver:
		fmt.Fprintf(l.w, "%d,resp,%d,%d,%d,0x%x\n",
			detail.Cycle, detail.Node, f.Tag, boolBit(f.Write),
			f.Payload[0])
	}
}

func boolBit(b bool) int {
	if b {
		return 1
	}

	return 0
}
