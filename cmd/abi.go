package cmd

import (
	"strings"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/spf13/cobra"
)

// abiRow is the JSON shape of one ABI entry.
type abiRow struct {
	Kind       string `json:"kind"`
	Signature  string `json:"signature"`
	Selector   string `json:"selector,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Mutability string `json:"mutability,omitempty"`
	Outputs    string `json:"outputs,omitempty"`
}

func mutability(e artifact.ABIEntry) string {
	switch {
	case e.StateMutability != "":
		return e.StateMutability
	case e.IsReadFunction():
		return "view"
	case e.Payable:
		return "payable"
	}
	return "nonpayable"
}

func abiRows(entries artifact.ABI) []abiRow {
	rows := make([]abiRow, 0, len(entries))
	for _, e := range entries {
		row := abiRow{Kind: e.Kind(), Signature: e.Signature()}
		switch row.Kind {
		case "function":
			row.Selector = e.Selector()
			row.Mutability = mutability(e)
			outs := make([]string, len(e.Outputs))
			for i, o := range e.Outputs {
				outs[i] = o.Type
			}
			row.Outputs = strings.Join(outs, ",")
		case "event":
			row.Topic = e.Topic().Hex()
		case "constructor":
			row.Signature = "constructor" + strings.TrimPrefix(row.Signature, e.Name)
			row.Mutability = mutability(e)
		}
		rows = append(rows, row)
	}
	return rows
}

func newABICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abi",
		Short: "List the contract's functions and events",
		Long: `Print every ABI entry with its canonical signature, the 4-byte selector
of functions and the topic hash of events. No node is contacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			f, err := a.factory(cmd.Context(), false)
			if err != nil {
				return err
			}
			rows := abiRows(f.ABI())
			if a.asJSON {
				return writeJSON(a, rows)
			}

			t := ui.NewTable("KIND", "SIGNATURE", "SELECTOR / TOPIC", "MUTABILITY", "RETURNS")
			for _, r := range rows {
				id := r.Selector
				if r.Topic != "" {
					id = r.Topic
				}
				t.AddRow(r.Kind, ui.Val(r.Signature), ui.Meta(id), r.Mutability, r.Outputs)
			}
			a.println(t.Render())
			return nil
		},
	}
}
