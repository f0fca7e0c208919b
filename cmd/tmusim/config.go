package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/tmu/datarecording"
	"github.com/sarchlab/tmu/ring"
)

// config is the ring configuration shared by all the commands. Values come
// from the environment first, then from flags.
type config struct {
	numNodes       int
	partitionBytes int
	sendDepth      int
	mergeDepth     int
	respDepth      int
	mergeBypass    bool
	traceDir       string
}

func defaultConfig() config {
	return config{
		numNodes:       8,
		partitionBytes: 128 * 1024,
		sendDepth:      4,
		mergeDepth:     4,
		respDepth:      4,
	}
}

// loadEnv reads an env file into the environment. A missing file is not an
// error.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "loading %s", path)
	}

	return nil
}

func (c *config) readEnv() error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"TMU_NUM_NODES", &c.numNodes},
		{"TMU_PARTITION_BYTES", &c.partitionBytes},
		{"TMU_SEND_DEPTH", &c.sendDepth},
		{"TMU_MERGE_DEPTH", &c.mergeDepth},
		{"TMU_RESP_DEPTH", &c.respDepth},
	}

	for _, v := range ints {
		s, ok := os.LookupEnv(v.name)
		if !ok || s == "" {
			continue
		}

		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", v.name)
		}

		*v.dst = n
	}

	if s, ok := os.LookupEnv("TMU_MERGE_BYPASS"); ok && s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return errors.Wrap(err, "parsing TMU_MERGE_BYPASS")
		}

		c.mergeBypass = b
	}

	if s, ok := os.LookupEnv("TMU_TRACE_DIR"); ok {
		c.traceDir = s
	}

	return nil
}

func addConfigFlags(cmd *cobra.Command) {
	d := defaultConfig()
	f := cmd.PersistentFlags()

	f.String("env", ".env", "Environment file to load")
	f.Int("nodes", d.numNodes, "Number of nodes (TMU_NUM_NODES)")
	f.Int("partition-bytes", d.partitionBytes,
		"Bytes per storage partition (TMU_PARTITION_BYTES)")
	f.Int("send-depth", d.sendDepth, "Send buffer depth (TMU_SEND_DEPTH)")
	f.Int("merge-depth", d.mergeDepth, "Merge buffer depth (TMU_MERGE_DEPTH)")
	f.Int("resp-depth", d.respDepth,
		"Response queue depth (TMU_RESP_DEPTH)")
	f.Bool("merge-bypass", d.mergeBypass,
		"Deliver responses without merge buffering (TMU_MERGE_BYPASS)")
	f.String("trace-dir", "",
		"Directory for the transaction CSV (TMU_TRACE_DIR)")
}

// resolveConfig builds the configuration of a command: defaults, then the
// env file and the environment, then the flags that were set explicitly.
func resolveConfig(cmd *cobra.Command) (config, error) {
	c := defaultConfig()
	f := cmd.Flags()

	envFile, _ := f.GetString("env")
	if err := loadEnv(envFile); err != nil {
		return c, err
	}

	if err := c.readEnv(); err != nil {
		return c, err
	}

	ints := map[string]*int{
		"nodes":           &c.numNodes,
		"partition-bytes": &c.partitionBytes,
		"send-depth":      &c.sendDepth,
		"merge-depth":     &c.mergeDepth,
		"resp-depth":      &c.respDepth,
	}

	for name, dst := range ints {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}

	if f.Changed("merge-bypass") {
		c.mergeBypass, _ = f.GetBool("merge-bypass")
	}

	if f.Changed("trace-dir") {
		c.traceDir, _ = f.GetString("trace-dir")
	}

	if err := c.builder().Validate(); err != nil {
		return c, errors.Wrap(err, "invalid ring configuration")
	}

	return c, nil
}

func (c config) builder() ring.Builder {
	return ring.MakeBuilder().
		WithNumNodes(c.numNodes).
		WithPartitionBytes(c.partitionBytes).
		WithSendBufferDepth(c.sendDepth).
		WithMergeBufferDepth(c.mergeDepth).
		WithResponseQueueDepth(c.respDepth).
		WithMergeBypass(c.mergeBypass)
}

// record stores the configuration with the other execution properties.
func (c config) record(r *datarecording.ExecRecorder) {
	r.Property("Nodes", strconv.Itoa(c.numNodes))
	r.Property("Partition Bytes", strconv.Itoa(c.partitionBytes))
	r.Property("Send Depth", strconv.Itoa(c.sendDepth))
	r.Property("Merge Depth", strconv.Itoa(c.mergeDepth))
	r.Property("Response Depth", strconv.Itoa(c.respDepth))
	r.Property("Merge Bypass", strconv.FormatBool(c.mergeBypass))
}
