package cmd

import (
	"slices"
	"strings"
	"time"

	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// networkRow is the JSON shape of one artifact network record.
type networkRow struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Address   string            `json:"address,omitempty"`
	TxHash    string            `json:"transactionHash,omitempty"`
	UpdatedAt string            `json:"updated_at,omitempty"`
	Links     map[string]string `json:"links,omitempty"`
	Active    bool              `json:"active"`
}

func newNetworksCmd() *cobra.Command {
	var known bool

	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List the networks the artifact has deployments for",
		Long: `List every network record in the artifact with its deployed address,
library links and last update. The record selected by --network (or
"default" when none is pinned) is marked. --known lists the network ids the
tool can name instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if known {
				return listKnownNetworks(a)
			}

			f, err := a.factory(cmd.Context(), false)
			if err != nil {
				return err
			}
			active := f.NetworkID()
			if active == "" {
				active = "default"
			}

			art := f.Artifact()
			var rows []networkRow
			for _, id := range art.NetworkIDs() {
				rec, _ := art.Network(id)
				row := networkRow{
					ID:      id,
					Name:    a.registry.Describe(id),
					Address: rec.Address,
					TxHash:  rec.TxHash,
					Links:   rec.Links,
					Active:  id == active,
				}
				if t := rec.Updated(); !t.IsZero() {
					row.UpdatedAt = t.UTC().Format(time.RFC3339)
				}
				rows = append(rows, row)
			}

			if a.asJSON {
				return writeJSON(a, rows)
			}
			if len(rows) == 0 {
				a.println(ui.Info(f.Name() + " has no network records"))
				return nil
			}
			t := ui.NewTable("", "NETWORK", "NAME", "ADDRESS", "UPDATED", "LINKS")
			for _, r := range rows {
				mark := ""
				if r.Active {
					mark = ui.StyleSuccess.Render("*")
				}
				addr := ui.Meta("not deployed")
				if r.Address != "" {
					addr = ui.Addr(r.Address)
				}
				t.AddRow(mark, ui.NetworkName(r.ID), r.Name, addr, r.UpdatedAt, formatLinks(r.Links))
			}
			a.println(t.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&known, "known", false, "list well-known network ids instead")
	return cmd
}

func formatLinks(links map[string]string) string {
	names := lo.Keys(links)
	slices.Sort(names)
	return strings.Join(lo.Map(names, func(name string, _ int) string {
		return name + "=" + ui.TruncateAddr(links[name])
	}), " ")
}

func listKnownNetworks(a *app) error {
	nets := a.registry.All()
	if a.asJSON {
		return writeJSON(a, nets)
	}
	t := ui.NewTable("ID", "NAME", "DISPLAY NAME", "TESTNET")
	for _, n := range nets {
		testnet := ""
		if n.Testnet {
			testnet = "yes"
		}
		t.AddRow(n.ID, n.Name, n.DisplayName, testnet)
	}
	a.println(t.Render())
	return nil
}
