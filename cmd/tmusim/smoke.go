package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/tmu/acceptance"
)

func newSmokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Run the directed smoke test.",
		Long: "`smoke` sends one request at a time from every node and " +
			"checks every response.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			r := c.builder().Build("TMU")

			path, closeLog, err := openTransactionLog(c, r, "smoke")
			if err != nil {
				return err
			}
			defer closeLog()

			result, err := acceptance.SmokeTest(r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, v := range result.Violations {
				fmt.Fprintln(out, color.RedString("violation: %s", v))
			}

			if path != "" {
				fmt.Fprintf(out, "transactions logged to %s\n", path)
			}

			if !result.Passed() {
				fmt.Fprintln(out, color.RedString(
					"FAIL: %d violations in %d transactions",
					len(result.Violations), result.Transactions))

				return errors.New("smoke test failed")
			}

			fmt.Fprintln(out, color.GreenString(
				"PASS: %d transactions in %d cycles",
				result.Transactions, result.Cycles))

			return nil
		},
	}
}
