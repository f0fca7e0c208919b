// Package acceptance runs traffic through a ring and checks every response
// against a reference memory model.
package acceptance

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/monitoring"
	"github.com/sarchlab/tmu/ring"
	"github.com/sarchlab/tmu/sim"
)

// DefaultTimeout is the number of cycles a request may stay in flight.
const DefaultTimeout = 2000

// A Violation is a response that does not match the reference model, or a
// request that never completes.
type Violation struct {
	Cycle  uint64
	Node   flit.NodeID
	Tag    uint8
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("cycle %d, node %d, tag 0x%02x: %s",
		v.Cycle, v.Node, v.Tag, v.Reason)
}

// TrafficConfig describes the random traffic of a test.
type TrafficConfig struct {
	RequestsPerAgent int
	Pattern          Pattern
	ReadRatio        float64
	Hotspot          flit.NodeID
	Seed             int64
}

// Stats summarizes a test.
type Stats struct {
	Planned      uint64
	Issued       uint64
	Completed    uint64
	TotalLatency uint64
	MaxLatency   uint64
	Cycles       uint64
}

// AvgLatency returns the mean number of cycles from acceptance to delivery.
func (s Stats) AvgLatency() float64 {
	if s.Completed == 0 {
		return 0
	}

	return float64(s.TotalLatency) / float64(s.Completed)
}

// Throughput returns the number of completed requests per cycle.
func (s Stats) Throughput() float64 {
	if s.Cycles == 0 {
		return 0
	}

	return float64(s.Completed) / float64(s.Cycles)
}

// Test is a test case. It owns one agent per port of a router.
type Test struct {
	router     *ring.Router
	timeout    uint64
	agents     []*Agent
	violations []Violation
	stats      Stats
	progress   *monitoring.ProgressBar
}

// NewTest creates a new test on a router.
func NewTest(router *ring.Router) *Test {
	return &Test{
		router:  router,
		timeout: DefaultTimeout,
	}
}

// WithTimeout sets the number of cycles after which an outstanding request
// is reported.
func (t *Test) WithTimeout(cycles uint64) *Test {
	t.timeout = cycles
	return t
}

// WithProgressBar reports the progress of the test on a monitor bar.
func (t *Test) WithProgressBar(bar *monitoring.ProgressBar) *Test {
	t.progress = bar
	return t
}

// RegisterAgent adds an agent to the test.
func (t *Test) RegisterAgent(agent *Agent) {
	t.agents = append(t.agents, agent)
}

// Agents returns the registered agents.
func (t *Test) Agents() []*Agent {
	return t.agents
}

// CreateAgents creates and registers one agent for every port of the
// router.
func (t *Test) CreateAgents(engine sim.Engine, freq sim.Freq) {
	for id := 0; id < t.router.NumNodes(); id++ {
		name := sim.BuildNameWithIndex(t.router.Name(), "Agent", id)
		NewAgent(name, engine, freq, t.router.Port(flit.NodeID(id)), t)
	}
}

// GenerateTraffic plans the requests of every agent. Each agent only
// touches the lines whose index modulo the number of nodes is its own ID,
// so the expected value of every read is known.
func (t *Test) GenerateTraffic(cfg TrafficConfig) error {
	if cfg.ReadRatio < 0 || cfg.ReadRatio > 1 {
		return errors.Errorf("read ratio %.2f is not in [0, 1]", cfg.ReadRatio)
	}

	n := t.router.NumNodes()
	layout := t.router.Layout()
	numLines := 1 << layout.IndexBits

	if numLines < n {
		return errors.Errorf(
			"%d lines per partition cannot be shared by %d agents",
			numLines, n)
	}

	if int(cfg.Hotspot) < 0 || int(cfg.Hotspot) >= n {
		return errors.Errorf("hotspot node %d does not exist", cfg.Hotspot)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	topo := t.router.Table().Topology()

	for _, a := range t.agents {
		var written []flit.Address

		for i := 0; i < cfg.RequestsPerAgent; i++ {
			if rng.Float64() < cfg.ReadRatio && len(written) > 0 {
				addr := written[rng.Intn(len(written))]
				a.plan(transaction{addr: addr})

				continue
			}

			dst := cfg.Pattern.pickDst(a.ID(), topo, cfg.Hotspot, rng)
			index := rng.Intn(numLines/n)*n + int(a.ID())
			addr := layout.Make(uint32(index), dst, 0)

			a.plan(transaction{
				write:   true,
				addr:    addr,
				payload: flit.SeededLine(rng.Uint32()),
			})

			written = append(written, addr)
		}

		t.stats.Planned += uint64(cfg.RequestsPerAgent)
	}

	if t.progress != nil {
		t.progress.SetTotal(t.stats.Planned)
	}

	return nil
}

// Run starts all the agents and runs the engine until the traffic drains.
func (t *Test) Run(engine sim.Engine) error {
	for _, a := range t.agents {
		a.TickNow()
	}

	err := engine.Run()
	t.stats.Cycles = t.router.Cycle()

	return err
}

func (t *Test) issue() {
	t.stats.Issued++

	if t.progress != nil {
		t.progress.IncrementInProgress(1)
	}
}

func (t *Test) complete(latency uint64) {
	t.stats.Completed++
	t.stats.TotalLatency += latency

	if latency > t.stats.MaxLatency {
		t.stats.MaxLatency = latency
	}

	if t.progress != nil {
		t.progress.MoveInProgressToFinished(1)
	}
}

func (t *Test) report(v Violation) {
	t.violations = append(t.violations, v)
}

// Violations returns every mismatch found so far.
func (t *Test) Violations() []Violation {
	return t.violations
}

// Stats returns the summary of the test.
func (t *Test) Stats() Stats {
	return t.stats
}

// Err returns an error if any response mismatched or any planned request
// did not complete.
func (t *Test) Err() error {
	if len(t.violations) > 0 {
		return errors.Errorf("%d violations, first: %s",
			len(t.violations), t.violations[0])
	}

	if t.stats.Completed != t.stats.Planned {
		return errors.Errorf("%d of %d requests completed",
			t.stats.Completed, t.stats.Planned)
	}

	return nil
}

// MustPass asserts that every planned request completed with the expected
// response.
func (t *Test) MustPass() {
	err := t.Err()
	if err == nil {
		return
	}

	for _, v := range t.violations {
		log.Printf("violation: %s\n", v)
	}

	for _, a := range t.agents {
		if a.Pending() > 0 {
			log.Printf("agent %s has %d requests pending\n",
				a.Name(), a.Pending())
		}
	}

	log.Panic(err)
}

// ReportBandwidthAchieved dumps the bandwidth observed by each agent.
func (t *Test) ReportBandwidthAchieved(now sim.VTimeInSec) {
	if now <= 0 {
		return
	}

	for _, a := range t.agents {
		log.Printf(
			"agent %s, send bandwidth %.2f GB/s, recv bandwidth %.2f GB/s",
			a.Name(),
			float64(a.sendBytes)/float64(now)/1e9,
			float64(a.recvBytes)/float64(now)/1e9)
	}
}
