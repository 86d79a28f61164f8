package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/bcamacho/RightsContract/internal/chain"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var errNotMined = errors.New("transaction not mined yet")

func newReceiptCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "receipt <tx-hash>",
		Short: "Show a transaction receipt and the events it emitted",
		Long: `Look up a transaction receipt. Logs emitted by the contract are decoded
against its ABI. With --wait the receipt is polled until it is mined or
--timeout passes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			raw := args[0]
			if len(raw) != 66 || !has0xPrefix(raw) {
				return fmt.Errorf("invalid transaction hash %q", raw)
			}
			hash := common.HexToHash(raw)

			f, err := a.factory(ctx, true)
			if err != nil {
				return err
			}

			var r *chain.Receipt
			if wait {
				err = ui.RunProgress(ctx, a.errOut, a.tty, "receipt", a.observe, func(ctx context.Context) (string, error) {
					got, err := a.client.Poller().Wait(ctx, hash)
					r = got
					return "", err
				})
			} else {
				r, err = a.client.TransactionReceipt(ctx, hash)
				if err == nil && r == nil {
					err = errNotMined
				}
			}
			if err != nil {
				return err
			}

			// Logs are decoded with the contract's ABI even when no deployment
			// is recorded.
			inst, err := a.instance(f)
			if err != nil {
				if inst, err = f.At(common.Address{}.Hex()); err != nil {
					return err
				}
			}
			return printSend(a, inst, sendResult{TxHash: hash.Hex()}, r)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the transaction is mined")
	return cmd
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
