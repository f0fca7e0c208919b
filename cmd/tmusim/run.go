package main

import (
	"fmt"
	"io"
	"log"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/tmu/acceptance"
	"github.com/sarchlab/tmu/flit"
	"github.com/sarchlab/tmu/sim"
	"github.com/sarchlab/tmu/simulation"
	"github.com/sarchlab/tmu/tracing"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run random traffic against a reference model.",
		Long: "`run` attaches one agent to every port, sends random " +
			"requests, and checks every response against the lines the " +
			"agent wrote.",
		RunE: runTraffic,
	}

	f := cmd.Flags()
	f.Int("requests", 1000, "Requests sent by each agent")
	f.String("pattern", string(acceptance.PatternUniform),
		"Traffic pattern: uniform, neighbor, self, or hotspot")
	f.Float64("read-ratio", 0.5, "Fraction of the requests that are reads")
	f.Int("hotspot", 0, "Target node of the hotspot pattern")
	f.Int64("seed", 1, "Random seed")
	f.Uint64("timeout", acceptance.DefaultTimeout,
		"Cycles a request may stay in flight")
	f.Bool("monitor", false, "Serve the monitor while simulating")
	f.Int("monitor-port", 0, "Port of the monitor, random if 0")
	f.Bool("open", false, "Open the monitor in a browser")
	f.String("output", "", "Name of the SQLite trace database")
	f.String("trace-csv", "",
		"Also write the request traces to this file, without the .csv suffix")
	f.Bool("log-events", false, "Log every event the engine handles")
	f.Bool("parallel-ids", false,
		"Generate unique but non-deterministic trace IDs")

	return cmd
}

func runTraffic(cmd *cobra.Command, _ []string) error {
	c, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	requests, _ := f.GetInt("requests")
	patternName, _ := f.GetString("pattern")
	readRatio, _ := f.GetFloat64("read-ratio")
	hotspot, _ := f.GetInt("hotspot")
	seed, _ := f.GetInt64("seed")
	timeout, _ := f.GetUint64("timeout")
	monitorOn, _ := f.GetBool("monitor")
	monitorPort, _ := f.GetInt("monitor-port")
	openBrowser, _ := f.GetBool("open")
	output, _ := f.GetString("output")
	traceCSV, _ := f.GetString("trace-csv")
	logEvents, _ := f.GetBool("log-events")
	parallelIDs, _ := f.GetBool("parallel-ids")

	pattern, err := acceptance.ParsePattern(patternName)
	if err != nil {
		return err
	}

	if err := sim.ChooseIDGenerator(parallelIDs); err != nil {
		return errors.Wrap(err, "selecting the id generator")
	}

	b := simulation.MakeBuilder().WithOutputFileName(output)
	if monitorOn {
		b = b.WithMonitorPort(monitorPort)
	} else {
		b = b.WithoutMonitoring()
	}

	s := b.Build()
	defer s.Terminate()

	engine := s.GetEngine()
	freq := c.builder().Freq()

	if logEvents {
		engine.AcceptHook(sim.NewEventLogger(log.New(cmd.ErrOrStderr(), "", 0)))
	}

	comp := c.builder().BuildComp("TMU", engine)
	s.RegisterRing(comp)
	router := comp.Router()
	c.record(s.GetExecRecorder())

	latency := tracing.NewAverageTimeTracer(engine, tracing.KindIs("req"))
	tracing.CollectTrace(router, latency)

	if traceCSV != "" {
		csv := tracing.NewCSVTraceWriter(traceCSV, engine)
		if err := csv.Init(); err != nil {
			return errors.Wrap(err, "creating the trace file")
		}
		defer csv.Close()

		tracing.CollectTrace(router, csv)
	}

	path, closeLog, err := openTransactionLog(c, router, "run")
	if err != nil {
		return err
	}
	defer closeLog()

	test := acceptance.NewTest(router).WithTimeout(timeout)
	test.CreateAgents(engine, freq)

	for _, a := range test.Agents() {
		s.RegisterComponent(a)
	}

	if monitor := s.GetMonitor(); monitor != nil {
		bar := monitor.CreateProgressBar("Requests", 0)
		test.WithProgressBar(bar)
		defer monitor.CompleteProgressBar(bar)

		if openBrowser {
			if err := monitor.OpenInBrowser(); err != nil {
				return errors.Wrap(err, "opening the monitor")
			}
		}
	}

	err = test.GenerateTraffic(acceptance.TrafficConfig{
		RequestsPerAgent: requests,
		Pattern:          pattern,
		ReadRatio:        readRatio,
		Hotspot:          flit.NodeID(hotspot),
		Seed:             seed,
	})
	if err != nil {
		return err
	}

	if err := test.Run(engine); err != nil {
		return errors.Wrap(err, "running the engine")
	}

	test.ReportBandwidthAchieved(engine.CurrentTime())

	out := cmd.OutOrStdout()
	printStats(out, test.Stats(), router.Counters().StallCycles)
	printTracedLatency(out, latency, freq)

	if path != "" {
		fmt.Fprintf(out, "transactions logged to %s\n", path)
	}

	if err := test.Err(); err != nil {
		for _, v := range test.Violations() {
			fmt.Fprintln(out, color.RedString("violation: %s", v))
		}

		fmt.Fprintln(out, color.RedString("FAIL: %s", err))

		return err
	}

	fmt.Fprintln(out, color.GreenString("PASS"))

	return nil
}

func printStats(w io.Writer, s acceptance.Stats, stallCycles uint64) {
	fmt.Fprintf(w, "requests:     %d issued, %d completed\n",
		s.Issued, s.Completed)
	fmt.Fprintf(w, "cycles:       %d\n", s.Cycles)
	fmt.Fprintf(w, "latency:      %.2f avg, %d max\n",
		s.AvgLatency(), s.MaxLatency)
	fmt.Fprintf(w, "throughput:   %.3f requests/cycle\n", s.Throughput())
	fmt.Fprintf(w, "stall cycles: %d\n", stallCycles)
}

func printTracedLatency(
	w io.Writer,
	t *tracing.AverageTimeTracer,
	freq sim.Freq,
) {
	fmt.Fprintf(w, "ring latency: %.2f avg, %.0f max over %d requests\n",
		float64(t.AverageTime())*float64(freq),
		float64(t.MaxTime())*float64(freq),
		t.TotalCount())
}
