package txopts

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/bcamacho/RightsContract/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Recognized option keys. Any other key is carried along but ignored by the
// transport.
const (
	KeyFrom     = "from"
	KeyTo       = "to"
	KeyGas      = "gas"
	KeyGasPrice = "gasPrice"
	KeyValue    = "value"
	KeyData     = "data"
	KeyNonce    = "nonce"
)

// Options is an open key-value set of transaction parameters.
type Options map[string]any

// Merge combines layers in increasing precedence. The merge is shallow: a key
// present in a later layer replaces the earlier value entirely. Inputs are
// never modified.
func Merge(layers ...Options) Options {
	merged := Options{}
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}

// Split separates a trailing options object from call arguments.
//
// The last argument is treated as options only when it is a plain key-value
// map that cannot be read as a large integer. Numeric-looking maps (such as a
// serialized bignumber) stay in the argument list.
func Split(args []any) ([]any, Options) {
	if len(args) == 0 {
		return args, Options{}
	}
	last := args[len(args)-1]
	opts, ok := asObject(last)
	if !ok || IsBigNumber(last) {
		return args, Options{}
	}
	rest := args[: len(args)-1 : len(args)-1]
	if opts == nil {
		opts = Options{}
	}
	return rest, opts
}

func asObject(v any) (Options, bool) {
	switch o := v.(type) {
	case Options:
		return o, true
	case map[string]any:
		return Options(o), true
	}
	return nil, false
}

// Has reports whether key is set to a non-nil value.
func (o Options) Has(key string) bool {
	v, ok := o[key]
	return ok && v != nil
}

// From returns the sender address, if set.
func (o Options) From() (*common.Address, error) { return o.address(KeyFrom) }

// To returns the recipient address, if set.
func (o Options) To() (*common.Address, error) { return o.address(KeyTo) }

// Gas returns the gas limit, or 0 when unset.
func (o Options) Gas() (uint64, error) {
	n, err := o.bigInt(KeyGas)
	if err != nil || n == nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("option %q out of range: %s", KeyGas, n)
	}
	return n.Uint64(), nil
}

// GasPrice returns the gas price, or nil when unset.
func (o Options) GasPrice() (*big.Int, error) { return o.bigInt(KeyGasPrice) }

// Value returns the amount of wei to transfer, or nil when unset.
func (o Options) Value() (*big.Int, error) { return o.bigInt(KeyValue) }

// Nonce returns the explicit nonce, or nil when unset.
func (o Options) Nonce() (*uint64, error) {
	n, err := o.bigInt(KeyNonce)
	if err != nil || n == nil {
		return nil, err
	}
	if !n.IsUint64() {
		return nil, fmt.Errorf("option %q out of range: %s", KeyNonce, n)
	}
	u := n.Uint64()
	return &u, nil
}

// Data returns the raw data override, or nil when unset.
func (o Options) Data() ([]byte, error) {
	v, ok := o[KeyData]
	if !ok || v == nil {
		return nil, nil
	}
	switch d := v.(type) {
	case []byte:
		return d, nil
	case hexutil.Bytes:
		return d, nil
	case string:
		if !strings.HasPrefix(d, "0x") && !strings.HasPrefix(d, "0X") {
			d = "0x" + d
		}
		b, err := hexutil.Decode(d)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", KeyData, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("option %q: unsupported type %T", KeyData, v)
}

// CallMsg converts the options into a transport message. Conversion errors
// name the offending key.
func (o Options) CallMsg() (chain.CallMsg, error) {
	var (
		msg chain.CallMsg
		err error
	)
	if msg.From, err = o.From(); err != nil {
		return msg, err
	}
	if msg.To, err = o.To(); err != nil {
		return msg, err
	}
	if msg.Gas, err = o.Gas(); err != nil {
		return msg, err
	}
	if msg.GasPrice, err = o.GasPrice(); err != nil {
		return msg, err
	}
	if msg.Value, err = o.Value(); err != nil {
		return msg, err
	}
	if msg.Nonce, err = o.Nonce(); err != nil {
		return msg, err
	}
	if msg.Data, err = o.Data(); err != nil {
		return msg, err
	}
	return msg, nil
}

func (o Options) address(key string) (*common.Address, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch a := v.(type) {
	case common.Address:
		return &a, nil
	case *common.Address:
		return a, nil
	case string:
		if !common.IsHexAddress(a) {
			return nil, fmt.Errorf("option %q: invalid address %q", key, a)
		}
		addr := common.HexToAddress(a)
		return &addr, nil
	}
	return nil, fmt.Errorf("option %q: unsupported type %T", key, v)
}

func (o Options) bigInt(key string) (*big.Int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := ToBigInt(v)
	if err != nil {
		return nil, fmt.Errorf("option %q: %w", key, err)
	}
	return n, nil
}
