package acceptance

import (
	"fmt"

	"github.com/google/btree"

	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/ring"
	"github.com/sarchlab/tmu/sim"
)

type transaction struct {
	write   bool
	addr    flit.Address
	payload flit.Line

	tag    uint8
	issued uint64
	expect flit.Line
}

// ageItem orders outstanding requests by the cycle they were accepted in.
type ageItem struct {
	issued uint64
	tag    uint8
}

func (i ageItem) Less(than btree.Item) bool {
	o := than.(ageItem)
	if i.issued != o.issued {
		return i.issued < o.issued
	}

	return i.tag < o.tag
}

// Agent drives one port of a ring. It sends its planned requests in order,
// keeps a model of the lines it owns, and checks every response.
type Agent struct {
	*sim.TickingComponent

	test *Test
	port *ring.Port

	toSend   []transaction
	freeTags []uint8
	inflight map[uint8]*transaction
	byAge    *btree.BTree
	model    map[flit.Address]flit.Line

	sendBytes uint64
	recvBytes uint64
}

// NewAgent creates an agent on a port and registers it to the test.
func NewAgent(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	port *ring.Port,
	test *Test,
) *Agent {
	a := &Agent{
		test:     test,
		port:     port,
		inflight: make(map[uint8]*transaction),
		byAge:    btree.New(2),
		model:    make(map[flit.Address]flit.Line),
	}
	a.TickingComponent = sim.NewTickingComponent(name, engine, freq, a)

	numTags := 1 << test.router.TagBits()
	for tag := 0; tag < numTags; tag++ {
		a.freeTags = append(a.freeTags, uint8(tag))
	}

	test.RegisterAgent(a)

	return a
}

// ID returns the node the agent is attached to.
func (a *Agent) ID() flit.NodeID {
	return a.port.ID()
}

// Pending returns the number of requests not completed yet.
func (a *Agent) Pending() int {
	return len(a.toSend) + len(a.inflight)
}

func (a *Agent) plan(t transaction) {
	a.toSend = append(a.toSend, t)
}

// Tick sends at most one request and takes at most one response. The agent
// keeps ticking while it waits for responses.
func (a *Agent) Tick() bool {
	madeProgress := false

	madeProgress = a.receive() || madeProgress
	madeProgress = a.send() || madeProgress
	madeProgress = a.expire() || madeProgress

	return madeProgress || a.Pending() > 0
}

func (a *Agent) now() uint64 {
	return a.test.router.Cycle()
}

func (a *Agent) send() bool {
	if len(a.toSend) == 0 || len(a.freeTags) == 0 {
		return false
	}

	t := a.toSend[0]
	t.tag = a.freeTags[0]

	req := ring.Request{
		Write:   t.write,
		Address: t.addr,
		Tag:     t.tag,
		Payload: t.payload,
	}
	if !a.port.Send(req) {
		return false
	}

	a.toSend = a.toSend[1:]
	a.freeTags = a.freeTags[1:]

	t.issued = a.now()
	if t.write {
		a.model[t.addr] = t.payload
		t.expect = t.payload
		a.sendBytes += flit.LineBytes
	} else {
		t.expect = a.model[t.addr]
	}

	a.inflight[t.tag] = &t
	a.byAge.ReplaceOrInsert(ageItem{issued: t.issued, tag: t.tag})
	a.test.issue()

	return true
}

func (a *Agent) receive() bool {
	rsp := a.port.RetrieveResponse()
	if rsp == nil {
		return false
	}

	now := a.now()

	t, found := a.inflight[rsp.Tag]
	if !found {
		a.violate(now, rsp.Tag, "response to a request not in flight")
		return true
	}

	a.check(now, t, rsp)

	delete(a.inflight, rsp.Tag)
	a.byAge.Delete(ageItem{issued: t.issued, tag: t.tag})
	a.freeTags = append(a.freeTags, t.tag)

	if !t.write {
		a.recvBytes += flit.LineBytes
	}

	a.test.complete(now - t.issued)

	return true
}

func (a *Agent) check(now uint64, t *transaction, rsp *ring.Response) {
	if rsp.Write != t.write {
		a.violate(now, t.tag, fmt.Sprintf(
			"response write flag is %t, expected %t", rsp.Write, t.write))
	}

	dst := a.test.router.Layout().Pipe(t.addr)
	if rsp.Src != dst {
		a.violate(now, t.tag, fmt.Sprintf(
			"response is from node %d, expected %d", rsp.Src, dst))
	}

	for i := range t.expect {
		if rsp.Payload[i] != t.expect[i] {
			a.violate(now, t.tag, fmt.Sprintf(
				"word %d of 0x%x is 0x%x, expected 0x%x",
				i, t.addr, rsp.Payload[i], t.expect[i]))

			return
		}
	}
}

// expire reports the requests that have been in flight for too long. Their
// tags are retired so that a late response is reported as unexpected.
func (a *Agent) expire() bool {
	now := a.now()
	expired := false

	for a.byAge.Len() > 0 {
		oldest := a.byAge.Min().(ageItem)
		if now-oldest.issued <= a.test.timeout {
			break
		}

		a.byAge.Delete(oldest)
		delete(a.inflight, oldest.tag)
		a.violate(now, oldest.tag, fmt.Sprintf(
			"no response after %d cycles", now-oldest.issued))

		expired = true
	}

	return expired
}

func (a *Agent) violate(now uint64, tag uint8, reason string) {
	a.test.report(Violation{
		Cycle:  now,
		Node:   a.ID(),
		Tag:    tag,
		Reason: reason,
	})
}
