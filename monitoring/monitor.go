// Package monitoring turns a running simulation into a web server, so that
// the state of the rings can be inspected while it runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/tmu/queueing"
	"github.com/sarchlab/tmu/ring"
	"github.com/sarchlab/tmu/sim"
)

// A RingInspector exposes the state of a ring router.
type RingInspector interface {
	sim.Named
	Cycle() uint64
	Counters() ring.Counters
	NodeStatuses() []ring.NodeStatus
	Links() []ring.LinkStatus
	InFlight() int
	Buffers() []queueing.Buffer
}

// Monitor serves the state of the registered engine, components, and rings.
type Monitor struct {
	engine     sim.Engine
	components []sim.Component
	rings      []RingInspector
	buffers    []queueing.Buffer
	portNumber int
	url        string

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	pauseLock sync.Mutex
	paused    bool
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor. Privileged ports are
// replaced with a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterComponent registers a component to be listed and serialized.
func (m *Monitor) RegisterComponent(c sim.Component) {
	m.components = append(m.components, c)
}

// RegisterRing registers a ring whose nodes, links, and buffers are served.
func (m *Monitor) RegisterRing(r RingInspector) {
	m.rings = append(m.rings, r)
	m.buffers = append(m.buffers, r.Buffers()...)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the list of bars served.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			bars = append(bars, b)
		}
	}

	m.progressBars = bars
}

func (m *Monitor) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", m.index)
	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/run", m.run)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/hangdetector/buffers", m.hangDetectorBuffers)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/rings", m.listRings)
	r.HandleFunc("/api/ring/{name}/counters", m.ringCounters)
	r.HandleFunc("/api/ring/{name}/nodes", m.ringNodes)
	r.HandleFunc("/api/ring/{name}/links", m.ringLinks)

	return r
}

// StartServer starts the monitor as a web server. It returns the URL of the
// server.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	handler := m.routes()
	go func() {
		err := http.Serve(listener, handler)
		dieOnErr(err)
	}()

	return m.url
}

// OpenInBrowser opens the page of a started server.
func (m *Monitor) OpenInBrowser() error {
	if m.url == "" {
		return errors.New("monitoring server is not started")
	}

	return errors.Wrap(browser.OpenURL(m.url), "cannot open browser")
}

func (m *Monitor) index(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintln(w, "TMU monitor")

	for _, r := range m.rings {
		fmt.Fprintf(w, "ring %s: /api/ring/%s/{counters,nodes,links}\n",
			r.Name(), r.Name())
	}
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.pauseLock.Lock()
	if !m.paused {
		m.engine.Pause()
		m.paused = true
	}
	m.pauseLock.Unlock()

	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.pauseLock.Lock()
	if m.paused {
		m.engine.Continue()
		m.paused = false
	}
	m.pauseLock.Unlock()

	_, err := w.Write(nil)
	dieOnErr(err)
}

// inspect calls f between two events. Rings and buffers change only while
// the engine handles an event, so f sees a consistent state.
func (m *Monitor) inspect(f func()) {
	m.pauseLock.Lock()
	defer m.pauseLock.Unlock()

	if m.engine != nil && !m.paused {
		m.engine.Pause()
		defer m.engine.Continue()
	}

	f()
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%.10f}", m.engine.CurrentTime())
}

func (m *Monitor) run(_ http.ResponseWriter, _ *http.Request) {
	go func() {
		if err := m.engine.Run(); err != nil {
			log.Panic(err)
		}
	}()
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	component := m.findComponentOr404(w, mux.Vars(r)["name"])
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)
	dieOnErr(serializer.Serialize(w))
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}
	if err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)
	dieOnErr(serializer.SetEntryPoint(strings.Split(req.FieldName, ".")))
	dieOnErr(serializer.Serialize(w))
}

type bufferLevel struct {
	Buffer string `json:"buffer"`
	Level  int    `json:"level"`
	Cap    int    `json:"cap"`
}

func (m *Monitor) hangDetectorBuffers(w http.ResponseWriter, r *http.Request) {
	sortMethod, limit, offset, err := buffersParseParams(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	var levels []bufferLevel

	m.inspect(func() {
		selected := m.sortAndSelectBuffers(sortMethod, limit, offset)

		levels = make([]bufferLevel, 0, len(selected))
		for _, b := range selected {
			levels = append(levels, bufferLevel{
				Buffer: b.Name(),
				Level:  b.Size(),
				Cap:    b.Capacity(),
			})
		}
	})

	writeJSON(w, levels)
}

func buffersParseParams(
	r *http.Request,
) (sortMethod string, limit, offset int, err error) {
	query := r.URL.Query()

	sortMethod = query.Get("sort")
	if sortMethod == "" {
		sortMethod = "percent"
	}

	if sortMethod != "level" && sortMethod != "percent" {
		return "", 0, 0, errors.Errorf(
			"invalid sort method %s, allowed values are `level` and `percent`",
			sortMethod)
	}

	limit, err = intParam(query.Get("limit"))
	if err != nil {
		return "", 0, 0, errors.Wrap(err, "invalid limit")
	}

	offset, err = intParam(query.Get("offset"))
	if err != nil {
		return "", 0, 0, errors.Wrap(err, "invalid offset")
	}

	return sortMethod, limit, offset, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(s)
	if err == nil && v < 0 {
		err = errors.Errorf("%d is negative", v)
	}

	return v, err
}

func bufferPercent(b queueing.Buffer) float64 {
	return float64(b.Size()) / float64(b.Capacity())
}

// sortAndSelectBuffers orders the buffers from the fullest. A zero limit
// selects all the buffers after the offset.
func (m *Monitor) sortAndSelectBuffers(
	sortMethod string,
	limit, offset int,
) []queueing.Buffer {
	sorted := make([]queueing.Buffer, len(m.buffers))
	copy(sorted, m.buffers)

	byLevel := func(i, j int) bool {
		if sorted[i].Size() != sorted[j].Size() {
			return sorted[i].Size() > sorted[j].Size()
		}

		return bufferPercent(sorted[i]) > bufferPercent(sorted[j])
	}

	byPercent := func(i, j int) bool {
		if bufferPercent(sorted[i]) != bufferPercent(sorted[j]) {
			return bufferPercent(sorted[i]) > bufferPercent(sorted[j])
		}

		return sorted[i].Size() > sorted[j].Size()
	}

	switch sortMethod {
	case "level":
		sort.SliceStable(sorted, byLevel)
	case "percent":
		sort.SliceStable(sorted, byPercent)
	default:
		log.Panicf("invalid sort method %s", sortMethod)
	}

	if offset > len(sorted) {
		offset = len(sorted)
	}

	end := len(sorted)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return sorted[offset:end]
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) sim.Component {
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Component not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listRings(w http.ResponseWriter, _ *http.Request) {
	type ringSummary struct {
		Name     string `json:"name"`
		Cycle    uint64 `json:"cycle"`
		InFlight int    `json:"in_flight"`
	}

	rings := make([]ringSummary, 0, len(m.rings))

	m.inspect(func() {
		for _, r := range m.rings {
			rings = append(rings, ringSummary{
				Name:     r.Name(),
				Cycle:    r.Cycle(),
				InFlight: r.InFlight(),
			})
		}
	})

	writeJSON(w, rings)
}

func (m *Monitor) findRingOr404(w http.ResponseWriter, r *http.Request) RingInspector {
	name := mux.Vars(r)["name"]
	for _, inspector := range m.rings {
		if inspector.Name() == name {
			return inspector
		}
	}

	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, "Ring %s not found", name)

	return nil
}

func (m *Monitor) ringCounters(w http.ResponseWriter, r *http.Request) {
	if inspector := m.findRingOr404(w, r); inspector != nil {
		var counters ring.Counters

		m.inspect(func() { counters = inspector.Counters() })
		writeJSON(w, counters)
	}
}

func (m *Monitor) ringNodes(w http.ResponseWriter, r *http.Request) {
	if inspector := m.findRingOr404(w, r); inspector != nil {
		var nodes []ring.NodeStatus

		m.inspect(func() { nodes = inspector.NodeStatuses() })
		writeJSON(w, nodes)
	}
}

// ringLinks serves the link registers. With occupied=true, empty links are
// left out.
func (m *Monitor) ringLinks(w http.ResponseWriter, r *http.Request) {
	inspector := m.findRingOr404(w, r)
	if inspector == nil {
		return
	}

	var links []ring.LinkStatus

	m.inspect(func() { links = inspector.Links() })

	if r.URL.Query().Get("occupied") == "true" {
		occupied := links[:0]
		for _, l := range links {
			if l.Occupied {
				occupied = append(occupied, l)
			}
		}

		links = occupied
	}

	writeJSON(w, links)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memory, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memory.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	dieOnErr(pprof.StartCPUProfile(buf))
	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(v)
	dieOnErr(err)

	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
