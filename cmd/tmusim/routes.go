package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/tmu/flit"
)

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the routing table.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			table := c.builder().Build("TMU").Table()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "ring order: %v\n", table.Topology().Order())
			fmt.Fprintln(out, "src,dst,dir,hops,latency")

			n := table.Topology().Size()
			for src := 0; src < n; src++ {
				for dst := 0; dst < n; dst++ {
					s, d := flit.NodeID(src), flit.NodeID(dst)
					hops := table.Hops(s, d)

					fmt.Fprintf(out, "%d,%d,%s,%d,%d\n",
						src, dst, table.Direction(s, d), hops, 4+2*hops)
				}
			}

			return nil
		},
	}
}
