// Package simulation bundles the engine, the data recorder, the tracer, and
// the monitor that a TMU simulation runs with.
package simulation

import (
	"log"

	"github.com/sarchlab/tmu/datarecording"
	"github.com/sarchlab/tmu/monitoring"
	"github.com/sarchlab/tmu/ring"
	"github.com/sarchlab/tmu/sim"
	"github.com/sarchlab/tmu/tracing"
)

// A Simulation provides the services required to run a simulation.
type Simulation struct {
	id     string
	engine sim.Engine

	dataRecorder datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	monitor      *monitoring.Monitor
	visTracer    *tracing.DBTracer

	components    []sim.Component
	compNameIndex map[string]int
	routers       []*ring.Router
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetExecRecorder returns the recorder of the execution properties.
func (s *Simulation) GetExecRecorder() *datarecording.ExecRecorder {
	return s.execRecorder
}

// GetMonitor returns the monitor used in the simulation. It is nil if
// monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetVisTracer returns the tracer that records tasks into the data
// recorder.
func (s *Simulation) GetVisTracer() *tracing.DBTracer {
	return s.visTracer
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c sim.Component) {
	name := c.Name()
	if _, found := s.compNameIndex[name]; found {
		log.Panicf("component %s already registered", name)
	}

	s.components = append(s.components, c)
	s.compNameIndex[name] = len(s.components) - 1

	if s.monitor != nil {
		s.monitor.RegisterComponent(c)
	}
}

// RegisterRing registers a ring driven by the engine. Its transactions are
// traced into the data recorder and its state is served by the monitor.
func (s *Simulation) RegisterRing(c *ring.Comp) {
	s.RegisterComponent(c)

	r := c.Router()
	s.routers = append(s.routers, r)
	tracing.CollectTrace(r, s.visTracer)

	if s.monitor != nil {
		s.monitor.RegisterRing(r)
	}
}

// Components returns all the registered components.
func (s *Simulation) Components() []sim.Component {
	return s.components
}

// Routers returns the routers of the registered rings.
func (s *Simulation) Routers() []*ring.Router {
	return s.routers
}

// GetComponentByName returns the component with the given name, or nil.
func (s *Simulation) GetComponentByName(name string) sim.Component {
	i, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[i]
}

// Terminate flushes the traces and the execution properties, and closes the
// data recorder.
func (s *Simulation) Terminate() {
	s.visTracer.Terminate()
	s.execRecorder.End()

	if err := s.dataRecorder.Close(); err != nil {
		log.Print(err)
	}
}
