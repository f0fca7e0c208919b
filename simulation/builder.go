package simulation

import (
	"log"

	"github.com/rs/xid"

	"github.com/sarchlab/tmu/datarecording"
	"github.com/sarchlab/tmu/monitoring"
	"github.com/sarchlab/tmu/sim"
	"github.com/sarchlab/tmu/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	outputFileName string
}

// MakeBuilder creates a new builder. Monitoring is on by default.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithOutputFileName sets the file name of the data recorder, without the
// .sqlite3 extension.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		log.Panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:            xid.New().String(),
		compNameIndex: make(map[string]int),
	}

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "tmu_sim_" + s.id
	}

	recorder, err := datarecording.New(outputPath)
	if err != nil {
		log.Panic(err)
	}

	s.dataRecorder = recorder
	s.execRecorder = datarecording.NewExecRecorder(recorder)
	s.execRecorder.Start()
	s.engine = sim.NewSerialEngine()
	s.visTracer = tracing.NewDBTracer(s.engine, s.dataRecorder)

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}

		s.monitor.RegisterEngine(s.engine)
		s.monitor.StartServer()
	}

	return s
}
