package contract

import (
	"context"
	"fmt"
	"sort"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

// Instance is a contract bound to one deployed address.
type Instance struct {
	factory *Factory
	address common.Address
	txHash  common.Hash

	entries artifact.ABI
	methods map[string]*Method
	events  map[string]*Event
}

func newInstance(f *Factory, addr common.Address, txHash common.Hash) (*Instance, error) {
	i := &Instance{factory: f, address: addr, txHash: txHash}
	if err := i.bind(); err != nil {
		return nil, err
	}
	return i, nil
}

// bind builds the method and event tables from the factory's active ABI and
// any linked library events. Calling it again rebuilds the tables. For
// overloaded names the last entry wins.
func (i *Instance) bind() error {
	f := i.factory
	i.entries = append(append(artifact.ABI(nil), f.record.ABI...), f.linkedEvents...)
	i.methods = map[string]*Method{}
	i.events = map[string]*Event{}

	for _, e := range i.entries {
		switch e.Kind() {
		case "function":
			parsed, err := artifact.ABI{e}.Parse()
			if err != nil {
				return fmt.Errorf("%s.%s: %w", f.name, e.Name, err)
			}
			i.methods[e.Name] = &Method{instance: i, entry: e, method: parsed.Methods[e.Name]}
		case "event":
			parsed, err := artifact.ABI{e}.Parse()
			if err != nil {
				return fmt.Errorf("%s.%s: %w", f.name, e.Name, err)
			}
			i.events[e.Name] = &Event{instance: i, entry: e, event: parsed.Events[e.Name]}
		}
	}
	return nil
}

// Method returns the named function wrapper.
func (i *Instance) Method(name string) (*Method, error) {
	m, ok := i.methods[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", i.factory.name, ErrUnknownMethod, name)
	}
	return m, nil
}

// MustMethod is like Method but panics when name is unknown. It is meant for
// names known at compile time.
func (i *Instance) MustMethod(name string) *Method {
	m, err := i.Method(name)
	if err != nil {
		panic(err)
	}
	return m
}

// Methods returns the function names, sorted.
func (i *Instance) Methods() []string {
	names := lo.Keys(i.methods)
	sort.Strings(names)
	return names
}

// Event returns the named event wrapper.
func (i *Instance) Event(name string) (*Event, error) {
	e, ok := i.events[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", i.factory.name, ErrUnknownEvent, name)
	}
	return e, nil
}

// Events returns the event names, sorted.
func (i *Instance) Events() []string {
	names := lo.Keys(i.events)
	sort.Strings(names)
	return names
}

// Invoke runs the named method with its default behavior.
func (i *Instance) Invoke(ctx context.Context, name string, args ...any) (*Result, error) {
	m, err := i.Method(name)
	if err != nil {
		return nil, err
	}
	return m.Invoke(ctx, args...)
}

func (i *Instance) Address() common.Address { return i.address }

// TransactionHash returns the hash of the deploying transaction, or the zero
// hash when unknown.
func (i *Instance) TransactionHash() common.Hash { return i.txHash }

// ABI returns the entries the instance was bound with.
func (i *Instance) ABI() artifact.ABI { return i.entries }

// Factory returns the factory the instance belongs to.
func (i *Instance) Factory() *Factory { return i.factory }
