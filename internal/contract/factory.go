// Package contract binds a compiled contract artifact to a node connection.
//
// A Factory holds everything shared by the deployed copies of one contract:
// its artifact, the active network record, library links, default
// transaction options and extensions. Instances returned by New, At and
// Deployed expose one Method per ABI function and one Event per ABI event.
package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/bcamacho/RightsContract/internal/chain"
	"github.com/bcamacho/RightsContract/internal/confirm"
	"github.com/bcamacho/RightsContract/internal/linker"
	"github.com/bcamacho/RightsContract/internal/logging"
	"github.com/bcamacho/RightsContract/internal/txopts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Factory produces instances of one contract.
//
// Factory is not safe for concurrent mutation: SetNetwork, SetProvider,
// Link, LinkAll, Defaults and Extend must not run while operations on the
// factory or its instances are in flight.
type Factory struct {
	name     string
	artifact *artifact.Artifact
	provider Provider

	networkID    string
	record       artifact.Record
	links        map[string]common.Address
	linkedEvents []artifact.ABIEntry

	defaults   txopts.Options
	extensions Extensions

	syncTimeout  time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
	observers    []func(confirm.Transition)
}

// Option configures a Factory.
type Option func(*Factory)

// WithProvider sets the node connection.
func WithProvider(p Provider) Option {
	return func(f *Factory) { f.provider = p }
}

// WithSyncTimeout sets how long Invoke and New wait for a transaction to be
// mined. Zero or less waits indefinitely.
func WithSyncTimeout(d time.Duration) Option {
	return func(f *Factory) { f.syncTimeout = d }
}

// WithPollInterval sets the delay between receipt lookups and event polls.
func WithPollInterval(d time.Duration) Option {
	return func(f *Factory) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

// WithDefaults seeds the class-level transaction options.
func WithDefaults(opts txopts.Options) Option {
	return func(f *Factory) { f.defaults = txopts.Merge(f.defaults, opts) }
}

// WithObserver registers fn for confirmation state changes of every
// transaction Invoke waits on.
func WithObserver(fn func(confirm.Transition)) Option {
	return func(f *Factory) {
		if fn != nil {
			f.observers = append(f.observers, fn)
		}
	}
}

// NewFactory returns a factory for art. An empty name falls back to the
// artifact's contract name. The "default" record is selected but the network
// is left unpinned, so CheckNetwork asks the provider on first use.
func NewFactory(name string, art *artifact.Artifact, opts ...Option) *Factory {
	if art == nil {
		art = &artifact.Artifact{}
	}
	if name == "" {
		name = art.ContractName
	}
	f := &Factory{
		name:         name,
		artifact:     art,
		defaults:     txopts.Options{},
		extensions:   Extensions{},
		syncTimeout:  confirm.DefaultTimeout,
		pollInterval: confirm.DefaultInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.OrDiscard(f.logger)

	f.SetNetwork(artifact.DefaultNetwork)
	f.networkID = ""
	return f
}

// Default returns a factory for the embedded RightsContractFactory artifact.
func Default(opts ...Option) *Factory {
	return NewFactory("", artifact.Default(), opts...)
}

// New deploys a new copy of the contract and returns it once the node
// reports its address. args are the constructor arguments, optionally
// followed by transaction options.
func (f *Factory) New(ctx context.Context, args ...any) (*Instance, error) {
	if f.provider == nil {
		return nil, ErrNoProvider
	}
	if f.record.UnlinkedBinary == "" || f.record.UnlinkedBinary == "0x" {
		return nil, fmt.Errorf("%s: %w", f.name, ErrNoBinary)
	}
	binary := f.Binary()
	if err := linker.Check(f.name, binary); err != nil {
		return nil, err
	}

	args, opts := txopts.Split(args)
	merged := txopts.Merge(f.defaults, opts)
	msg, err := merged.CallMsg()
	if err != nil {
		return nil, fmt.Errorf("%s.New(): %w", f.name, err)
	}
	if !merged.Has(txopts.KeyData) {
		code, err := hexutil.Decode(ensure0x(binary))
		if err != nil {
			return nil, fmt.Errorf("%s: decoding binary: %w", f.name, err)
		}
		msg.Data = code
	}
	ctorArgs, err := f.packConstructor(args)
	if err != nil {
		return nil, err
	}
	msg.Data = append(msg.Data, ctorArgs...)

	updates, err := f.provider.Deploy(ctx, msg,
		confirm.WithInterval(f.pollInterval),
		confirm.WithTimeout(f.syncTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("deploying %s: %w", f.name, err)
	}
	var txHash common.Hash
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil, fmt.Errorf("deploying %s: no contract address reported for %s", f.name, txHash.Hex())
			}
			if u.Err != nil {
				return nil, fmt.Errorf("deploying %s: %w", f.name, u.Err)
			}
			if u.TxHash != (common.Hash{}) {
				txHash = u.TxHash
			}
			if u.Address == (common.Address{}) {
				continue
			}
			f.logger.Info("contract deployed", "contract", f.name, "address", u.Address.Hex(), "tx", txHash.Hex())
			return newInstance(f, u.Address, txHash)
		}
	}
}

func (f *Factory) packConstructor(args []any) ([]byte, error) {
	ctor := f.record.ABI.Constructor()
	if ctor == nil {
		if len(args) > 0 {
			return nil, fmt.Errorf("%s constructor: %w: expected 0, got %d", f.name, ErrArgumentCount, len(args))
		}
		return nil, nil
	}
	parsed, err := artifact.ABI{*ctor}.Parse()
	if err != nil {
		return nil, err
	}
	coerced, err := coerceArgs(f.name+" constructor", parsed.Constructor.Inputs, args)
	if err != nil {
		return nil, err
	}
	return parsed.Constructor.Inputs.Pack(coerced...)
}

// At returns an instance bound to an existing deployment. Only the address
// format is checked; no network call is made.
func (f *Factory) At(address string) (*Instance, error) {
	if len(address) != 42 || !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w passed to %s.At(): %s", ErrInvalidAddress, f.name, address)
	}
	var txHash common.Hash
	if f.record.TxHash != "" {
		txHash = common.HexToHash(f.record.TxHash)
	}
	return newInstance(f, common.HexToAddress(address), txHash)
}

// Deployed returns the instance at the active network's recorded address.
func (f *Factory) Deployed() (*Instance, error) {
	if f.record.Address == "" {
		return nil, fmt.Errorf("cannot find deployed address: %s %w", f.name, ErrNotDeployed)
	}
	return f.At(f.record.Address)
}

// SetProvider replaces the node connection.
func (f *Factory) SetProvider(p Provider) { f.provider = p }

// Provider returns the node connection, or nil.
func (f *Factory) Provider() Provider { return f.provider }

// Defaults merges opts into the class-level transaction options and returns
// a copy of the result. Calls accumulate; a nil opts only reads.
func (f *Factory) Defaults(opts txopts.Options) txopts.Options {
	if opts != nil {
		f.defaults = txopts.Merge(f.defaults, opts)
	}
	return txopts.Merge(f.defaults)
}

// WithNetwork returns a copy of the factory pinned to network id. The copy
// shares the provider and logger and gets copies of the defaults and
// extensions. Links come from the target network's record.
func (f *Factory) WithNetwork(id string) *Factory {
	c := &Factory{
		name:         f.name,
		artifact:     f.artifact,
		provider:     f.provider,
		defaults:     txopts.Merge(f.defaults),
		extensions:   Extensions{},
		syncTimeout:  f.syncTimeout,
		pollInterval: f.pollInterval,
		logger:       f.logger,
		observers:    slices.Clone(f.observers),
	}
	c.Extend(f.extensions)
	c.SetNetwork(id)
	return c
}

func (f *Factory) Name() string { return f.name }

// Artifact returns the artifact the factory was built from.
func (f *Factory) Artifact() *artifact.Artifact { return f.artifact }

// Record returns a copy of the active network record.
func (f *Factory) Record() artifact.Record { return f.record.Clone() }

// Address returns the recorded deployment address, or "".
func (f *Factory) Address() string { return f.record.Address }

// ABI returns the active interface description.
func (f *Factory) ABI() artifact.ABI { return f.record.ABI }

// UnlinkedBinary returns the bytecode with placeholders intact.
func (f *Factory) UnlinkedBinary() string { return f.record.UnlinkedBinary }

// UpdatedAt returns when the active record was last written.
func (f *Factory) UpdatedAt() time.Time { return f.record.Updated() }

// SyncTimeout returns how long Invoke and New wait for a transaction to be mined.
func (f *Factory) SyncTimeout() time.Duration { return f.syncTimeout }

// PollInterval returns the receipt and event polling interval.
func (f *Factory) PollInterval() time.Duration { return f.pollInterval }

func (f *Factory) poller() *confirm.Poller[chain.Receipt] {
	opts := []confirm.Option{
		confirm.WithInterval(f.pollInterval),
		confirm.WithTimeout(f.syncTimeout),
		confirm.WithLogger(f.logger),
	}
	for _, fn := range f.observers {
		opts = append(opts, confirm.OnState(fn))
	}
	return confirm.New[chain.Receipt](f.provider.TransactionReceipt, opts...)
}

func ensure0x(s string) string {
	if has0x(s) {
		return s
	}
	return "0x" + s
}

// IsConfigError reports whether err is one of the errors returned before any
// network I/O.
func IsConfigError(err error) bool {
	var unresolved *linker.UnresolvedError
	return errors.Is(err, ErrNoProvider) ||
		errors.Is(err, ErrNoBinary) ||
		errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrNotDeployed) ||
		errors.Is(err, ErrUnknownMethod) ||
		errors.Is(err, ErrUnknownEvent) ||
		errors.As(err, &unresolved)
}
