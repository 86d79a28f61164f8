package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/bcamacho/RightsContract/internal/contract"
	"github.com/bcamacho/RightsContract/internal/txopts"
	"github.com/bcamacho/RightsContract/internal/ui"
	"github.com/spf13/cobra"
)

// parseArgs turns command-line words into call arguments. A word holding a
// JSON object becomes a map so tuple parameters can be passed by field name.
// Everything else stays a string and is converted against the ABI type.
func parseArgs(words []string) ([]any, error) {
	out := make([]any, len(words))
	for i, w := range words {
		trimmed := strings.TrimSpace(w)
		if !strings.HasPrefix(trimmed, "{") {
			out[i] = w
			continue
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("argument %d: invalid JSON object: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}

var units = map[string]int{
	"wei":    0,
	"kwei":   3,
	"mwei":   6,
	"gwei":   9,
	"szabo":  12,
	"finney": 15,
	"ether":  18,
	"eth":    18,
}

// parseAmount reads a wei amount with an optional unit suffix: "1000",
// "0x3e8", "1.5ether", "20 gwei".
func parseAmount(s string) (*big.Int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "0x") {
		return txopts.ToBigInt(s)
	}

	num, exp := s, 0
	for unit, e := range units {
		if strings.HasSuffix(s, unit) {
			rest := strings.TrimSpace(strings.TrimSuffix(s, unit))
			// "gwei" also ends in "wei"; keep the longest unit.
			if len(rest) < len(num) {
				num, exp = rest, e
			}
		}
	}

	r, ok := new(big.Rat).SetString(num)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %q is not a whole number of wei", s)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("amount %q is negative", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// addTxFlags registers the per-call transaction options.
func addTxFlags(cmd *cobra.Command) {
	cmd.Flags().String("value", "", "wei to send along, e.g. 1000, 0.1ether, 20gwei")
	cmd.Flags().Uint64("nonce", 0, "explicit nonce")
	cmd.Flags().String("data", "", "raw calldata, replaces the encoded call")
}

// txOptions collects per-call options from flags. The result is always
// appended to the call arguments so a trailing tuple argument is never
// mistaken for options.
func txOptions(cmd *cobra.Command) (txopts.Options, error) {
	opts := txopts.Options{}
	if v, _ := cmd.Flags().GetString("value"); v != "" {
		wei, err := parseAmount(v)
		if err != nil {
			return nil, fmt.Errorf("--value: %w", err)
		}
		opts[txopts.KeyValue] = wei
	}
	if cmd.Flags().Changed("nonce") {
		n, _ := cmd.Flags().GetUint64("nonce")
		opts[txopts.KeyNonce] = n
	}
	if d, _ := cmd.Flags().GetString("data"); d != "" {
		opts[txopts.KeyData] = d
	}
	return opts, nil
}

// callArgs parses words and appends the flag options.
func callArgs(cmd *cobra.Command, words []string) ([]any, error) {
	args, err := parseArgs(words)
	if err != nil {
		return nil, err
	}
	opts, err := txOptions(cmd)
	if err != nil {
		return nil, err
	}
	return append(args, opts), nil
}

// pickMethod returns name, or lets the user choose one on a terminal.
func pickMethod(a *app, inst *contract.Instance, name string, constant bool) (string, error) {
	if name != "" {
		return name, nil
	}
	if !a.tty {
		return "", fmt.Errorf("method name required")
	}
	var items []ui.PickerItem
	for _, n := range inst.Methods() {
		m, err := inst.Method(n)
		if err != nil || m.IsConstant() != constant {
			continue
		}
		items = append(items, ui.PickerItem{Label: n, SubLabel: m.Signature(), Value: n})
	}
	picked, err := ui.Pick(a.in, a.out, "Pick a method of "+inst.Factory().Name(), items)
	if err != nil {
		return "", err
	}
	if picked == "" {
		return "", fmt.Errorf("no method picked")
	}
	return picked, nil
}

// formatValues renders decoded outputs for display.
func formatValues(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = contract.FormatValue(v)
	}
	return out
}

func writeJSON(a *app, v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
