package cmd

import (
	"fmt"

	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/spf13/cobra"
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate <method> [args...]",
		Short: "Estimate the gas a method call would use",
		Long: `Ask the node how much gas the method would use as a transaction.
Nothing is submitted.

Examples:
  rights estimate initiateContract my-song --from 0xabc...`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			f, err := a.factory(ctx, true)
			if err != nil {
				return err
			}
			inst, err := a.instance(f)
			if err != nil {
				return err
			}
			m, err := inst.Method(args[0])
			if err != nil {
				return err
			}
			cargs, err := callArgs(cmd, args[1:])
			if err != nil {
				return err
			}

			gas, err := m.EstimateGas(ctx, cargs...)
			if err != nil {
				return err
			}

			if a.asJSON {
				return writeJSON(a, map[string]any{
					"contract": inst.Address().Hex(),
					"method":   m.Signature(),
					"gas":      gas,
				})
			}
			if !a.tty {
				a.println(gas)
				return nil
			}
			a.println(ui.KeyValueBlock("Gas Estimate", [][2]string{
				{"Contract", ui.Addr(inst.Address().Hex())},
				{"Method", ui.Val(m.Signature())},
				{"Gas", ui.Val(fmt.Sprintf("%d", gas))},
			}))
			return nil
		},
	}
	addTxFlags(cmd)
	return cmd
}
