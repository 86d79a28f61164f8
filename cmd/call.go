package cmd

import (
	"fmt"

	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call [method] [args...]",
		Short: "Call a read-only contract method",
		Long: `Run a method with eth_call and print the decoded outputs. Nothing is
mined and no gas is spent, whatever the method's mutability.

Arguments are converted against the ABI: numbers may be decimal or 0x hex,
bytes32 values may be text or hex, arrays are JSON ("[1,2]") and tuples are
JSON objects keyed by field name. Without a method name an interactive picker
lists the read-only methods.

Examples:
  rights call creator
  rights call getContractAddr my-song
  rights call contracts 0x6d792d736f6e67 --address 0x565e8e...`,
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

			var name string
			if len(args) > 0 {
				name, args = args[0], args[1:]
			}
			name, err = pickMethod(a, inst, name, true)
			if err != nil {
				return err
			}
			m, err := inst.Method(name)
			if err != nil {
				return err
			}
			cargs, err := callArgs(cmd, args)
			if err != nil {
				return err
			}

			var spin *ui.Spinner
			if a.tty {
				spin = ui.NewSpinner(a.errOut, fmt.Sprintf("Calling %s…", m.Signature()))
				spin.Start()
			}
			vals, err := m.Call(ctx, cargs...)
			if spin != nil {
				spin.Stop()
			}
			if err != nil {
				return err
			}

			results := formatValues(vals)
			if a.asJSON {
				return writeJSON(a, map[string]any{
					"contract": inst.Address().Hex(),
					"method":   m.Signature(),
					"result":   results,
				})
			}
			if !a.tty {
				for _, r := range results {
					a.println(r)
				}
				return nil
			}

			pairs := [][2]string{
				{"Contract", ui.Addr(inst.Address().Hex())},
				{"Method", ui.Val(m.Signature())},
			}
			outputs := m.Entry().Outputs
			for i, r := range results {
				label := fmt.Sprintf("Result[%d]", i)
				if len(results) == 1 {
					label = "Result"
				}
				if i < len(outputs) && outputs[i].Name != "" {
					label = outputs[i].Name
				}
				pairs = append(pairs, [2]string{label, r})
			}
			a.println(ui.KeyValueBlock("Contract Call", pairs))
			return nil
		},
	}
	addTxFlags(cmd)
	return cmd
}
