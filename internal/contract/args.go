package contract

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/bcamacho/RightsContract/internal/txopts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// coerceArgs converts loosely typed values (strings from a command line,
// JSON numbers, big integers) into the Go types the ABI encoder expects.
func coerceArgs(sig string, params abi.Arguments, args []any) ([]any, error) {
	if len(args) != len(params) {
		return nil, fmt.Errorf("%s: %w: expected %d, got %d", sig, ErrArgumentCount, len(params), len(args))
	}
	out := make([]any, len(args))
	for i, p := range params {
		v, err := coerce(p.Type, args[i])
		if err != nil {
			name := p.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("%s: argument %s (%s): %w", sig, name, p.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

func coerce(t abi.Type, v any) (any, error) {
	if v != nil && reflect.TypeOf(v) == t.GetType() {
		return v, nil
	}

	switch t.T {
	case abi.AddressTy:
		return toAddress(v)
	case abi.UintTy, abi.IntTy:
		return toInteger(t, v)
	case abi.BoolTy:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(b)
		}
	case abi.StringTy:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		case fmt.Stringer:
			return s.String(), nil
		}
	case abi.BytesTy:
		return toBytes(v)
	case abi.FixedBytesTy:
		return toFixedBytes(t, v)
	case abi.SliceTy, abi.ArrayTy:
		return toList(t, v)
	case abi.TupleTy:
		return toTuple(t, v)
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, t.String())
}

func toAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case *common.Address:
		if a != nil {
			return *a, nil
		}
	case string:
		if common.IsHexAddress(a) {
			return common.HexToAddress(a), nil
		}
		return common.Address{}, fmt.Errorf("invalid address %q", a)
	}
	return common.Address{}, fmt.Errorf("cannot use %T as address", v)
}

func toInteger(t abi.Type, v any) (any, error) {
	n, err := txopts.ToBigInt(v)
	if err != nil {
		return nil, err
	}
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s out of range for %s", n, t.String())
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		minVal := new(big.Int).Neg(limit)
		if n.Cmp(minVal) < 0 || n.Cmp(limit) >= 0 {
			return nil, fmt.Errorf("%s out of range for %s", n, t.String())
		}
	}

	// The encoder wants exact Go integer types up to 64 bits.
	goType := t.GetType()
	switch goType.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil
	}
	return n, nil
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case hexutil.Bytes:
		return b, nil
	case string:
		if has0x(b) {
			return hexutil.Decode(b)
		}
		return []byte(b), nil
	}
	return nil, fmt.Errorf("cannot use %T as bytes", v)
}

// toFixedBytes fills a bytesN value. 0x-prefixed strings are decoded as hex,
// other strings are taken as text; both are right-padded with zeros.
func toFixedBytes(t abi.Type, v any) (any, error) {
	var raw []byte
	switch b := v.(type) {
	case []byte:
		raw = b
	case common.Hash:
		raw = b[:]
	case string:
		if has0x(b) {
			decoded, err := hexutil.Decode(b)
			if err != nil {
				return nil, err
			}
			raw = decoded
		} else {
			raw = []byte(b)
		}
	default:
		return nil, fmt.Errorf("cannot use %T as %s", v, t.String())
	}
	if len(raw) > t.Size {
		return nil, fmt.Errorf("value is %d bytes, %s holds %d", len(raw), t.String(), t.Size)
	}
	arr := reflect.New(t.GetType()).Elem()
	reflect.Copy(arr, reflect.ValueOf(raw))
	return arr.Interface(), nil
}

func toList(t abi.Type, v any) (any, error) {
	if s, ok := v.(string); ok {
		// Command lines pass lists as JSON.
		var items []any
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("expected a JSON list for %s: %w", t.String(), err)
		}
		v = items
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot use %T as %s", v, t.String())
	}
	if t.T == abi.ArrayTy && rv.Len() != t.Size {
		return nil, fmt.Errorf("%s needs %d elements, got %d", t.String(), t.Size, rv.Len())
	}

	goType := t.GetType()
	var out reflect.Value
	if t.T == abi.SliceTy {
		out = reflect.MakeSlice(goType, rv.Len(), rv.Len())
	} else {
		out = reflect.New(goType).Elem()
	}
	for i := 0; i < rv.Len(); i++ {
		elem, err := coerce(*t.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}

// toTuple accepts a map keyed by component name or a positional list.
func toTuple(t abi.Type, v any) (any, error) {
	st := reflect.New(t.GetType()).Elem()
	switch fields := v.(type) {
	case map[string]any:
		for i, elem := range t.TupleElems {
			raw, ok := fields[t.TupleRawNames[i]]
			if !ok {
				return nil, fmt.Errorf("missing tuple field %q", t.TupleRawNames[i])
			}
			c, err := coerce(*elem, raw)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", t.TupleRawNames[i], err)
			}
			st.Field(i).Set(reflect.ValueOf(c))
		}
	case []any:
		if len(fields) != len(t.TupleElems) {
			return nil, fmt.Errorf("tuple needs %d fields, got %d", len(t.TupleElems), len(fields))
		}
		for i, elem := range t.TupleElems {
			c, err := coerce(*elem, fields[i])
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", i, err)
			}
			st.Field(i).Set(reflect.ValueOf(c))
		}
	default:
		return nil, fmt.Errorf("cannot use %T as %s", v, t.String())
	}
	return st.Interface(), nil
}

func has0x(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}

// FormatValue renders a decoded ABI value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case *big.Int:
		return x.String()
	case []byte:
		return hexutil.Encode(x)
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return hexutil.Encode(b)
		}
		fallthrough
	case reflect.Slice:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = FormatValue(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Struct:
		parts := make([]string, rv.NumField())
		for i := range parts {
			parts[i] = rv.Type().Field(i).Name + ": " + FormatValue(rv.Field(i).Interface())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(v)
}
