package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/bcamacho/RightsContract/internal/contract"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/spf13/cobra"
)

func newDeployCmd() *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "deploy [constructor-args...]",
		Short: "Deploy a new copy of the contract",
		Long: `Send the contract's bytecode with the constructor arguments and wait for
the node to report its address. Libraries the bytecode references must be
linked first (see "rights link").

The new address is recorded in the artifact under the selected network
(or "default" when none is pinned) and the artifact is written back, unless
--no-save is given.

Examples:
  rights deploy --from 0xabc... --gas 1500000
  rights deploy --network 3 --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			f, err := a.deployFactory(ctx)
			if err != nil {
				return err
			}
			if missing := f.Unresolved(); len(missing) > 0 {
				return fmt.Errorf("%s needs libraries linked first: %s", f.Name(), strings.Join(missing, ", "))
			}
			cargs, err := callArgs(cmd, args)
			if err != nil {
				return err
			}
			if !a.confirmSend(fmt.Sprintf("Deploy %s on %s?", f.Name(), a.networkLabel(f))) {
				return fmt.Errorf("aborted")
			}

			var inst *contract.Instance
			err = ui.RunProgress(ctx, a.errOut, a.tty, "deploy "+f.Name(), a.observe, func(ctx context.Context) (string, error) {
				deployed, err := f.New(ctx, cargs...)
				if err != nil {
					return "", err
				}
				inst = deployed
				return "deployed at " + deployed.Address().Hex(), nil
			})
			if err != nil {
				return err
			}

			rec := f.RecordDeployment(inst, a.now())
			saved := ""
			if !noSave {
				if saved, err = a.saveArtifact(f); err != nil {
					return err
				}
			}

			if a.asJSON {
				return writeJSON(a, map[string]any{
					"contract":        f.Name(),
					"address":         rec.Address,
					"transactionHash": rec.TxHash,
					"network":         a.networkLabel(f),
					"artifact":        saved,
				})
			}
			if !a.tty {
				a.println(rec.Address)
				return nil
			}
			pairs := [][2]string{
				{"Contract", ui.Val(f.Name())},
				{"Address", ui.Addr(rec.Address)},
				{"Tx Hash", ui.Meta(rec.TxHash)},
				{"Network", ui.NetworkName(a.networkLabel(f))},
			}
			if saved != "" {
				pairs = append(pairs, [2]string{"Saved To", saved})
			}
			a.println(ui.KeyValueBlock("Deployment", pairs))
			return nil
		},
	}
	addTxFlags(cmd)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the new address into the artifact")
	return cmd
}
