package contract

import (
	"context"
	"fmt"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/bcamacho/RightsContract/internal/chain"
	"github.com/bcamacho/RightsContract/internal/txopts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Result is the outcome of Method.Invoke. Queries fill Values; transactions
// fill TxHash and Receipt.
type Result struct {
	Values  []any
	TxHash  common.Hash
	Receipt *chain.Receipt
}

// Reverted reports whether a mined transaction failed.
func (r *Result) Reverted() bool {
	return r.Receipt != nil && !r.Receipt.Succeeded()
}

// Method is a callable wrapper for one contract function. Every form takes
// the function's arguments optionally followed by a txopts.Options (or
// map[string]any) of transaction parameters.
type Method struct {
	instance *Instance
	entry    artifact.ABIEntry
	method   abi.Method
}

// Name returns the function name.
func (m *Method) Name() string { return m.entry.Name }

// Signature returns the canonical signature.
func (m *Method) Signature() string { return m.entry.Signature() }

// Entry returns the ABI entry the method was built from.
func (m *Method) Entry() artifact.ABIEntry { return m.entry }

// IsConstant reports whether Invoke runs the method as a query.
func (m *Method) IsConstant() bool { return m.entry.IsReadFunction() }

// Invoke runs the method the way its ABI entry calls for: constant functions
// are queried and their decoded outputs returned; others are sent as a
// transaction and Invoke waits until it is mined.
func (m *Method) Invoke(ctx context.Context, args ...any) (*Result, error) {
	if m.IsConstant() {
		values, err := m.Call(ctx, args...)
		if err != nil {
			return nil, err
		}
		return &Result{Values: values}, nil
	}

	hash, err := m.SendTransaction(ctx, args...)
	if err != nil {
		return nil, err
	}
	f := m.instance.factory
	receipt, err := f.poller().Wait(ctx, hash)
	if err != nil {
		return &Result{TxHash: hash}, err
	}
	if !receipt.Succeeded() {
		f.logger.Warn("transaction reverted", "method", m.Signature(), "tx", hash.Hex())
	}
	return &Result{TxHash: hash, Receipt: receipt}, nil
}

// Async starts Invoke on its own goroutine. Cancel ctx to abandon it.
func (m *Method) Async(ctx context.Context, args ...any) *Pending[*Result] {
	return Go(func() (*Result, error) { return m.Invoke(ctx, args...) })
}

// Call executes the method without creating a transaction, regardless of
// its constancy, and returns the decoded outputs.
func (m *Method) Call(ctx context.Context, args ...any) ([]any, error) {
	p, msg, err := m.prepare(args)
	if err != nil {
		return nil, err
	}
	out, err := p.Call(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", m.Signature(), err)
	}
	if len(m.method.Outputs) == 0 {
		return []any{}, nil
	}
	values, err := m.method.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", m.Signature(), err)
	}
	return values, nil
}

// SendTransaction submits the method as a transaction and returns its hash
// without waiting for it to be mined.
func (m *Method) SendTransaction(ctx context.Context, args ...any) (common.Hash, error) {
	p, msg, err := m.prepare(args)
	if err != nil {
		return common.Hash{}, err
	}
	hash, err := p.SendTransaction(ctx, msg)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sending %s: %w", m.Signature(), err)
	}
	m.instance.factory.logger.Debug("transaction sent", "method", m.Signature(), "tx", hash.Hex())
	return hash, nil
}

// EstimateGas returns the gas the method is expected to use. Nothing is
// submitted.
func (m *Method) EstimateGas(ctx context.Context, args ...any) (uint64, error) {
	p, msg, err := m.prepare(args)
	if err != nil {
		return 0, err
	}
	gas, err := p.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("estimating %s: %w", m.Signature(), err)
	}
	return gas, nil
}

// Request builds the message the other forms would send, without sending
// it. Class defaults, per-call options, then the instance address and the
// encoded call data are merged in that order.
func (m *Method) Request(args ...any) (chain.CallMsg, error) {
	args, opts := txopts.Split(args)
	data, err := m.Pack(args...)
	if err != nil {
		return chain.CallMsg{}, err
	}
	merged := txopts.Merge(m.instance.factory.defaults, opts, txopts.Options{
		txopts.KeyTo:   m.instance.address,
		txopts.KeyData: data,
	})
	msg, err := merged.CallMsg()
	if err != nil {
		return chain.CallMsg{}, fmt.Errorf("%s: %w", m.Signature(), err)
	}
	return msg, nil
}

// Pack encodes args as call data: selector followed by the ABI-encoded
// arguments.
func (m *Method) Pack(args ...any) ([]byte, error) {
	coerced, err := coerceArgs(m.Signature(), m.method.Inputs, args)
	if err != nil {
		return nil, err
	}
	enc, err := m.method.Inputs.Pack(coerced...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", m.Signature(), err)
	}
	data := make([]byte, 0, len(m.method.ID)+len(enc))
	data = append(data, m.method.ID...)
	return append(data, enc...), nil
}

func (m *Method) prepare(args []any) (Provider, chain.CallMsg, error) {
	p := m.instance.factory.provider
	if p == nil {
		return nil, chain.CallMsg{}, ErrNoProvider
	}
	msg, err := m.Request(args...)
	return p, msg, err
}
