package cmd

import (
	"context"
	"fmt"

	"github.com/bcamacho/RightsContract/internal/chain"
	"github.com/bcamacho/RightsContract/internal/contract"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

// sendResult is the JSON shape printed by send.
type sendResult struct {
	Contract string         `json:"contract"`
	Method   string         `json:"method"`
	TxHash   string         `json:"transactionHash"`
	Mined    bool           `json:"mined"`
	Block    uint64         `json:"blockNumber,omitempty"`
	GasUsed  uint64         `json:"gasUsed,omitempty"`
	Status   string         `json:"status,omitempty"`
	Events   []eventSummary `json:"events,omitempty"`
}

func newSendCmd() *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "send [method] [args...]",
		Short: "Send a transaction to a contract method",
		Long: `Submit a method as a transaction and wait until it is mined.

Arguments are converted the same way as for call. The sender comes from
--from or the from setting; the node must hold its key. Without --yes the
command asks for confirmation on a terminal.

Progress is shown while the receipt is polled (every --poll-interval, for up
to --timeout). Press q to stop waiting; the transaction stays submitted.

Examples:
  rights send initiateContract my-song --from 0xabc...
  rights send removeContract my-song --gas 90000 --yes
  rights send remove --no-wait`,
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
			name, err = pickMethod(a, inst, name, false)
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

			prompt := fmt.Sprintf("Send %s to %s on %s?", m.Signature(), inst.Address().Hex(), a.networkLabel(f))
			if !a.confirmSend(prompt) {
				return fmt.Errorf("aborted")
			}

			out := sendResult{Contract: inst.Address().Hex(), Method: m.Signature()}
			if noWait {
				hash, err := m.SendTransaction(ctx, cargs...)
				if err != nil {
					return err
				}
				out.TxHash = hash.Hex()
				return printSend(a, inst, out, nil)
			}

			var receipt *chain.Receipt
			err = ui.RunProgress(ctx, a.errOut, a.tty, "send "+m.Name(), a.observe, func(ctx context.Context) (string, error) {
				hash, r, err := sendAndWait(ctx, a, m, cargs)
				out.TxHash = hash.Hex()
				if err != nil {
					return "", err
				}
				receipt = r
				return fmt.Sprintf("mined in block %d", uint64(r.BlockNumber)), nil
			})
			if err != nil {
				if out.TxHash != (common.Hash{}).Hex() {
					fmt.Fprintln(a.errOut, ui.Hint("transaction "+out.TxHash+" was submitted; check it later with `rights receipt`"))
				}
				return err
			}
			return printSend(a, inst, out, receipt)
		},
	}
	addTxFlags(cmd)
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "print the transaction hash without waiting for it to be mined")
	return cmd
}

// sendAndWait submits m and waits for its receipt. Non-constant methods go
// through Invoke; constant ones are forced into a transaction.
func sendAndWait(ctx context.Context, a *app, m *contract.Method, args []any) (common.Hash, *chain.Receipt, error) {
	if !m.IsConstant() {
		res, err := m.Invoke(ctx, args...)
		if res == nil {
			return common.Hash{}, nil, err
		}
		return res.TxHash, res.Receipt, err
	}
	hash, err := m.SendTransaction(ctx, args...)
	if err != nil {
		return common.Hash{}, nil, err
	}
	r, err := a.client.Poller().Wait(ctx, hash)
	return hash, r, err
}

func printSend(a *app, inst *contract.Instance, out sendResult, r *chain.Receipt) error {
	var events []contract.EventLog
	if r != nil {
		out.Mined = true
		out.Block = uint64(r.BlockNumber)
		out.GasUsed = uint64(r.GasUsed)
		out.Status = "success"
		if !r.Succeeded() {
			out.Status = "reverted"
		}
		decoded, err := inst.DecodeLogs(r.Logs)
		if err != nil {
			a.logger.Warn("could not decode receipt logs", "err", err)
		}
		events = decoded
		for _, ev := range events {
			out.Events = append(out.Events, summarizeEvent(ev))
		}
	}

	if a.asJSON {
		return writeJSON(a, out)
	}
	if !a.tty {
		a.println(out.TxHash)
		if r != nil {
			a.printf("block %d gas %d %s\n", out.Block, out.GasUsed, out.Status)
		}
		return nil
	}

	var pairs [][2]string
	if out.Contract != "" {
		pairs = append(pairs, [2]string{"Contract", ui.Addr(out.Contract)})
	}
	if out.Method != "" {
		pairs = append(pairs, [2]string{"Method", ui.Val(out.Method)})
	}
	pairs = append(pairs, [2]string{"Tx Hash", ui.Addr(out.TxHash)})
	if r == nil {
		pairs = append(pairs, [2]string{"Status", ui.Meta("submitted, not waited for")})
		a.println(ui.KeyValueBlock("Transaction", pairs))
		return nil
	}
	status := ui.Success(out.Status)
	if out.Status != "success" {
		status = ui.Err(out.Status)
	}
	pairs = append(pairs,
		[2]string{"Block", fmt.Sprintf("%d", out.Block)},
		[2]string{"Gas Used", fmt.Sprintf("%d", out.GasUsed)},
		[2]string{"Status", status},
	)
	a.println(ui.KeyValueBlock("Transaction", pairs))
	if len(events) > 0 {
		a.println(eventTable(events).Render())
	}
	return nil
}
