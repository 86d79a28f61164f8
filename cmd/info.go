package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bcamacho/RightsContract/internal/contract"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

// infoReport is the JSON shape printed by info.
type infoReport struct {
	Contract   string    `json:"contract"`
	Artifact   string    `json:"artifact"`
	Network    string    `json:"network"`
	Address    string    `json:"address,omitempty"`
	TxHash     string    `json:"transactionHash,omitempty"`
	UpdatedAt  string    `json:"updated_at,omitempty"`
	Methods    []string  `json:"methods"`
	Events     []string  `json:"events"`
	Unresolved []string  `json:"unresolved_libraries,omitempty"`
	Node       *nodeInfo `json:"node,omitempty"`
}

type nodeInfo struct {
	URL       string `json:"url"`
	NetworkID string `json:"network_id,omitempty"`
	Block     uint64 `json:"block,omitempty"`
	Latency   string `json:"latency,omitempty"`
	HasCode   *bool  `json:"has_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the contract binding",
		Long: `Show the artifact in use, the selected network record, the methods and
events instances expose and any libraries still missing from the bytecode.

When an RPC endpoint is configured the node is asked for its network, head
block and whether code exists at the contract address. Node errors are
reported but do not fail the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			f, err := a.factory(cmd.Context(), false)
			if err != nil {
				return err
			}

			var node *nodeInfo
			if a.cfg.RPCURL != "" {
				node = probeNode(cmd.Context(), a, f)
			}

			rep := infoReport{
				Contract:   f.Name(),
				Artifact:   a.artifactPath,
				Network:    a.networkLabel(f),
				Address:    f.Address(),
				TxHash:     f.Record().TxHash,
				Unresolved: f.Unresolved(),
				Node:       node,
			}
			if t := f.UpdatedAt(); !t.IsZero() {
				rep.UpdatedAt = t.UTC().Format("2006-01-02 15:04:05 MST")
			}
			if a.address != "" {
				rep.Address = a.address
			}
			for _, e := range f.ABI().Functions() {
				rep.Methods = append(rep.Methods, e.Signature())
			}
			for _, e := range f.ABI().Events() {
				rep.Events = append(rep.Events, e.Signature())
			}

			if a.asJSON {
				return writeJSON(a, rep)
			}
			printInfo(a, rep)
			return nil
		},
	}
}

// probeNode dials the node and pins the network it reports.
func probeNode(ctx context.Context, a *app, f *contract.Factory) *nodeInfo {
	node := &nodeInfo{URL: a.cfg.RPCURL}
	client, err := a.dial(ctx)
	if err != nil {
		node.Error = err.Error()
		return node
	}
	f.SetProvider(client)
	if node.NetworkID, err = client.NetworkID(ctx); err != nil {
		node.Error = err.Error()
		return node
	}
	latency, block, err := client.Ping(ctx)
	if err != nil {
		node.Error = err.Error()
		return node
	}
	node.Block = block
	node.Latency = latency.Round(time.Millisecond).String()

	if err := f.CheckNetwork(ctx); err != nil {
		node.Error = err.Error()
		return node
	}
	addr := a.address
	if addr == "" {
		addr = f.Address()
	}
	if addr != "" && common.IsHexAddress(addr) {
		code, err := client.CodeAt(ctx, common.HexToAddress(addr))
		if err != nil {
			node.Error = err.Error()
			return node
		}
		has := len(code) > 0
		node.HasCode = &has
	}
	return node
}

func printInfo(a *app, rep infoReport) {
	a.println(ui.Banner(rep.Contract, Version))
	a.println()

	address := ui.Meta("not deployed")
	if rep.Address != "" {
		address = ui.Addr(rep.Address)
	}
	pairs := [][2]string{
		{"Artifact", rep.Artifact},
		{"Network", ui.NetworkName(rep.Network)},
		{"Address", address},
	}
	if rep.TxHash != "" {
		pairs = append(pairs, [2]string{"Deploy Tx", ui.Meta(rep.TxHash)})
	}
	if rep.UpdatedAt != "" {
		pairs = append(pairs, [2]string{"Updated", rep.UpdatedAt})
	}
	if len(rep.Unresolved) > 0 {
		pairs = append(pairs, [2]string{"Needs Links", ui.StyleWarning.Render(strings.Join(rep.Unresolved, ", "))})
	}
	a.println(ui.KeyValueBlock("Contract", pairs))

	if n := rep.Node; n != nil {
		np := [][2]string{{"RPC", n.URL}}
		if n.NetworkID != "" {
			np = append(np, [2]string{"Network ID", n.NetworkID})
		}
		if n.Block != 0 {
			np = append(np, [2]string{"Head Block", fmt.Sprintf("%d (%s)", n.Block, n.Latency)})
		}
		if n.HasCode != nil {
			code := ui.Success("present")
			if !*n.HasCode {
				code = ui.Err("none at address")
			}
			np = append(np, [2]string{"Code", code})
		}
		if n.Error != "" {
			np = append(np, [2]string{"Error", ui.Err(n.Error)})
		}
		a.println(ui.KeyValueBlock("Node", np))
	}

	t := ui.NewTable("KIND", "SIGNATURE")
	for _, m := range rep.Methods {
		t.AddRow("method", ui.Val(m))
	}
	for _, e := range rep.Events {
		t.AddRow("event", ui.Val(e))
	}
	a.println(t.Render())
}
