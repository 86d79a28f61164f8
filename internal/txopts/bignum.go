package txopts

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrNotNumeric is returned when a value cannot be read as a large integer.
var ErrNotNumeric = errors.New("value is not a large integer")

const (
	// bignumber.js stores its coefficient in base 1e14 chunks.
	chunkDigits = 14
	// 2^256 has 78 decimal digits; anything wider is not an EVM integer.
	maxExponent = 1000
)

// IsBigNumber reports whether v is a key-value object that can nevertheless be
// constructed as a large integer. This is a shape heuristic, not a type tag:
// a map laid out like a serialized bignumber ({"s","e","c"}) qualifies, an
// ordinary options map does not.
func IsBigNumber(v any) bool {
	if _, ok := asObject(v); !ok {
		return false
	}
	_, err := ToBigInt(v)
	return err == nil
}

// ToBigInt converts v into a new *big.Int. Accepted inputs are Go integer
// kinds, integral float64 (JSON numbers), decimal or 0x-prefixed strings,
// json.Number, big.Int values, hexutil.Big, fmt.Stringer values that print a
// number, and serialized bignumber maps.
func ToBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("%w: nil *big.Int", ErrNotNumeric)
		}
		return new(big.Int).Set(x), nil
	case big.Int:
		return new(big.Int).Set(&x), nil
	case *hexutil.Big:
		if x == nil {
			return nil, fmt.Errorf("%w: nil *hexutil.Big", ErrNotNumeric)
		}
		return new(big.Int).Set(x.ToInt()), nil
	case hexutil.Big:
		return new(big.Int).Set(x.ToInt()), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int8:
		return big.NewInt(int64(x)), nil
	case int16:
		return big.NewInt(int64(x)), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case hexutil.Uint64:
		return new(big.Int).SetUint64(uint64(x)), nil
	case float64:
		return fromFloat(x)
	case json.Number:
		return parseInteger(x.String())
	case string:
		return parseInteger(x)
	case Options:
		return fromShape(x)
	case map[string]any:
		return fromShape(x)
	case fmt.Stringer:
		return parseInteger(x.String())
	}
	return nil, fmt.Errorf("%w: %T", ErrNotNumeric, v)
}

func fromFloat(f float64) (*big.Int, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%w: %v", ErrNotNumeric, f)
	}
	n, _ := big.NewFloat(f).Int(nil)
	return n, nil
}

func parseInteger(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")

	base := 10
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		base = 16
		body = body[2:]
	}
	if body == "" {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	n, ok := new(big.Int).SetString(body, base)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

// fromShape rebuilds an integer from bignumber.js internals: s is the sign,
// e the decimal exponent of the leading digit, c the coefficient chunks.
func fromShape(m map[string]any) (*big.Int, error) {
	sign, okS := toInt(m["s"])
	exp, okE := toInt(m["e"])
	chunks, okC := toChunks(m["c"])
	if !okS || !okE || !okC || len(m) != 3 || len(chunks) == 0 {
		return nil, fmt.Errorf("%w: object", ErrNotNumeric)
	}
	if sign != 1 && sign != -1 {
		return nil, fmt.Errorf("%w: bad sign %d", ErrNotNumeric, sign)
	}

	var digits strings.Builder
	for i, c := range chunks {
		n, ok := toInt(c)
		if !ok || n < 0 {
			return nil, fmt.Errorf("%w: bad coefficient", ErrNotNumeric)
		}
		if i == 0 {
			fmt.Fprintf(&digits, "%d", n)
		} else {
			fmt.Fprintf(&digits, "%0*d", chunkDigits, n)
		}
	}

	coeff := strings.TrimRight(digits.String(), "0")
	if coeff == "" {
		return new(big.Int), nil
	}
	if exp < 0 || exp > maxExponent || int64(len(coeff)) > exp+1 {
		return nil, fmt.Errorf("%w: fractional value", ErrNotNumeric)
	}
	coeff += strings.Repeat("0", int(exp+1)-len(coeff))

	n, ok := new(big.Int).SetString(coeff, 10)
	if !ok {
		return nil, fmt.Errorf("%w: bad coefficient", ErrNotNumeric)
	}
	if sign < 0 {
		n.Neg(n)
	}
	return n, nil
}

func toChunks(v any) ([]any, bool) {
	switch c := v.(type) {
	case []any:
		return c, true
	case []int:
		out := make([]any, len(c))
		for i, n := range c {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(c))
		for i, n := range c {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(c))
		for i, n := range c {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
