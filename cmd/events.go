package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/bcamacho/RightsContract/internal/contract"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// eventSummary is the JSON shape of one decoded log.
type eventSummary struct {
	Event    string            `json:"event"`
	Block    uint64            `json:"blockNumber"`
	TxHash   string            `json:"transactionHash"`
	LogIndex uint              `json:"logIndex"`
	Address  string            `json:"address"`
	Removed  bool              `json:"removed,omitempty"`
	Args     map[string]string `json:"args"`
}

func summarizeEvent(ev contract.EventLog) eventSummary {
	return eventSummary{
		Event:    ev.Event,
		Block:    ev.BlockNumber,
		TxHash:   ev.TxHash.Hex(),
		LogIndex: ev.LogIndex,
		Address:  ev.Address.Hex(),
		Removed:  ev.Removed,
		Args:     lo.MapValues(ev.Args, func(v any, _ string) string { return contract.FormatValue(v) }),
	}
}

// formatArgs renders args as "k=v" pairs in name order.
func formatArgs(args map[string]any) string {
	keys := lo.Keys(args)
	slices.Sort(keys)
	parts := lo.Map(keys, func(k string, _ int) string {
		return k + "=" + contract.FormatValue(args[k])
	})
	return strings.Join(parts, " ")
}

func eventTable(events []contract.EventLog) *ui.Table {
	t := ui.NewTable("BLOCK", "EVENT", "TX", "ARGS")
	for _, ev := range events {
		name := ev.Event
		if name == "" {
			name = ui.Meta("(unknown)")
		}
		t.AddRow(fmt.Sprintf("%d", ev.BlockNumber), name, ui.TruncateAddr(ev.TxHash.Hex()), formatArgs(ev.Args))
	}
	return t
}

// parseMatch turns repeated key=value flags into a filter. A key given more
// than once matches any of its values.
func parseMatch(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	match := map[string]any{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("--match %q: want name=value", p)
		}
		switch prev := match[k].(type) {
		case nil:
			match[k] = v
		case []any:
			match[k] = append(prev, v)
		default:
			match[k] = []any{prev, v}
		}
	}
	return match, nil
}

func parseBlock(s string) (*big.Int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "earliest", "latest":
		return nil, nil
	}
	n, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), lo.Ternary(strings.HasPrefix(s, "0x"), 16, 10))
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid block number %q", s)
	}
	return n, nil
}

func newEventsCmd() *cobra.Command {
	var (
		fromBlock string
		toBlock   string
		match     []string
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "events [event]",
		Short: "List or watch contract events",
		Long: `Fetch logs emitted by the contract and decode them against its ABI.

Without an event name every log of the contract is listed; logs that match no
known event are shown undecoded. With a name, --match narrows indexed
arguments. Repeat --match for the same argument to match any of the values.

--watch keeps polling for new blocks (every --poll-interval) and prints logs
as they arrive. Without --from-block watching starts at the next block.

Examples:
  rights events
  rights events RightsContractCreated --from-block 100 --to-block 200
  rights events RightsContractCreated --match _name=my-song --watch`,
		Args: cobra.MaximumNArgs(1),
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

			opts := contract.FilterOpts{}
			if opts.FromBlock, err = parseBlock(fromBlock); err != nil {
				return err
			}
			if opts.ToBlock, err = parseBlock(toBlock); err != nil {
				return err
			}
			if opts.Match, err = parseMatch(match); err != nil {
				return err
			}

			var ev *contract.Event
			if len(args) == 1 {
				if ev, err = inst.Event(args[0]); err != nil {
					return err
				}
			} else if len(opts.Match) > 0 {
				return errors.New("--match needs an event name")
			}

			if watch {
				return watchEvents(ctx, a, inst, ev, opts)
			}

			var logs []contract.EventLog
			if ev != nil {
				logs, err = ev.Filter(ctx, opts)
			} else {
				logs, err = inst.AllEvents(ctx, opts)
			}
			if err != nil {
				return err
			}

			if a.asJSON {
				return writeJSON(a, lo.Map(logs, func(l contract.EventLog, _ int) eventSummary { return summarizeEvent(l) }))
			}
			if len(logs) == 0 {
				fmt.Fprintln(a.errOut, ui.Info("no events found"))
				return nil
			}
			a.println(eventTable(logs).Render())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&fromBlock, "from-block", "", "first block to search (default: earliest, or next block with --watch)")
	flags.StringVar(&toBlock, "to-block", "", "last block to search (default: latest)")
	flags.StringArrayVar(&match, "match", nil, "indexed argument filter as name=value, repeatable")
	flags.BoolVar(&watch, "watch", false, "keep polling for new events until interrupted")
	return cmd
}

// watchEvents prints logs as they arrive, one line or JSON object each.
func watchEvents(ctx context.Context, a *app, inst *contract.Instance, ev *contract.Event, opts contract.FilterOpts) error {
	if !a.asJSON {
		fmt.Fprintln(a.errOut, ui.Info(fmt.Sprintf("watching %s events at %s (ctrl+c to stop)", inst.Factory().Name(), inst.Address().Hex())))
	}
	sink := func(l contract.EventLog) error {
		if a.asJSON {
			return writeJSON(a, summarizeEvent(l))
		}
		name := l.Event
		if name == "" {
			name = "(unknown)"
		}
		a.printf("%d %s %s %s\n", l.BlockNumber, name, l.TxHash.Hex(), formatArgs(l.Args))
		return nil
	}

	var err error
	if ev != nil {
		err = ev.Watch(ctx, opts, sink)
	} else {
		err = inst.WatchAll(ctx, opts, sink)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
