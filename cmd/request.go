package cmd

import (
	"github.com/bcamacho/RightsContract/internal/chain"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

// requestJSON is the transaction object a method call would send.
type requestJSON struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
	Value    string `json:"value,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
	Data     string `json:"data"`
}

func toRequestJSON(msg chain.CallMsg) requestJSON {
	out := requestJSON{Data: hexutil.Encode(msg.Data)}
	if msg.From != nil {
		out.From = msg.From.Hex()
	}
	if msg.To != nil {
		out.To = msg.To.Hex()
	}
	if msg.Gas != 0 {
		out.Gas = hexutil.EncodeUint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		out.GasPrice = hexutil.EncodeBig(msg.GasPrice)
	}
	if msg.Value != nil {
		out.Value = hexutil.EncodeBig(msg.Value)
	}
	if msg.Nonce != nil {
		out.Nonce = hexutil.EncodeUint64(*msg.Nonce)
	}
	return out
}

func newRequestCmd() *cobra.Command {
	var dataOnly bool

	cmd := &cobra.Command{
		Use:   "request <method> [args...]",
		Short: "Print the transaction a method call would send",
		Long: `Build the transaction object for a method without contacting the node.
Defaults from the configuration and per-call flags are merged in. Use it to
sign elsewhere or to hand the payload to another tool.

Examples:
  rights request initiateContract my-song --from 0xabc...
  rights request removeContract my-song --data-only`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)

			f, err := a.factory(cmd.Context(), false)
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
			msg, err := m.Request(cargs...)
			if err != nil {
				return err
			}

			if dataOnly {
				a.println(hexutil.Encode(msg.Data))
				return nil
			}
			return writeJSON(a, toRequestJSON(msg))
		},
	}
	addTxFlags(cmd)
	cmd.Flags().BoolVar(&dataOnly, "data-only", false, "print only the encoded calldata")
	return cmd
}
