package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/sarchlab/tmu/ring"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tmusim",
		Short: "tmusim simulates the TMU ring interconnect.",
		Long: `tmusim simulates the TMU ring interconnect cycle by cycle. ` +
			`It can run random traffic against a reference model, run the ` +
			`directed smoke test, and print the routing table.`,
		SilenceUsage: true,
	}

	addConfigFlags(root)

	root.AddCommand(newRunCmd())
	root.AddCommand(newSmokeCmd())
	root.AddCommand(newRoutesCmd())

	return root
}

// openTransactionLog attaches a transaction logger to the router when a
// trace directory is configured. The returned function closes the file.
func openTransactionLog(
	c config,
	r *ring.Router,
	prefix string,
) (string, func(), error) {
	if c.traceDir == "" {
		return "", func() {}, nil
	}

	if err := os.MkdirAll(c.traceDir, 0o755); err != nil {
		return "", nil, errors.Wrapf(err, "creating %s", c.traceDir)
	}

	path := filepath.Join(c.traceDir,
		fmt.Sprintf("%s_%s.csv", prefix, xid.New().String()))

	file, err := os.Create(path)
	if err != nil {
		return "", nil, errors.Wrapf(err, "creating %s", path)
	}

	r.AcceptHook(ring.NewTransactionLogger(file))

	return path, func() { file.Close() }, nil
}
