package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/bcamacho/RightsContract/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// FilterOpts narrows an event query. Nil blocks default to the whole chain
// for Filter and to new blocks only for Watch. Match restricts indexed
// arguments by name; a []any value matches any of its elements.
type FilterOpts struct {
	FromBlock *big.Int
	ToBlock   *big.Int
	Match     map[string]any
}

// EventLog is a decoded log entry. Event is empty for logs AllEvents could
// not match to a known event.
type EventLog struct {
	Event       string
	Address     common.Address
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
	Removed     bool
	Args        map[string]any
	Raw         chain.Log
}

// Event wraps one ABI event of an instance.
type Event struct {
	instance *Instance
	entry    artifact.ABIEntry
	event    abi.Event
}

func (e *Event) Name() string { return e.entry.Name }

// Topic returns the event's signature hash.
func (e *Event) Topic() common.Hash { return e.event.ID }

// Filter returns the matching logs emitted by the instance.
func (e *Event) Filter(ctx context.Context, opts FilterOpts) ([]EventLog, error) {
	p := e.instance.factory.provider
	if p == nil {
		return nil, ErrNoProvider
	}
	topics, err := e.topics(opts.Match)
	if err != nil {
		return nil, err
	}
	logs, err := p.FilterLogs(ctx, chain.LogFilter{
		Addresses: []common.Address{e.instance.address},
		Topics:    topics,
		FromBlock: opts.FromBlock,
		ToBlock:   opts.ToBlock,
	})
	if err != nil {
		return nil, fmt.Errorf("filtering %s: %w", e.Name(), err)
	}
	out := make([]EventLog, 0, len(logs))
	for _, l := range logs {
		decoded, err := e.decode(l)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// Watch delivers matching logs from new blocks to sink until ctx ends, the
// ToBlock is passed or sink returns an error. The chain head is polled on
// the factory's poll interval.
func (e *Event) Watch(ctx context.Context, opts FilterOpts, sink func(EventLog) error) error {
	return e.instance.watch(ctx, opts, sink, func(from, to *big.Int) ([]EventLog, error) {
		o := opts
		o.FromBlock, o.ToBlock = from, to
		return e.Filter(ctx, o)
	})
}

// topics builds the topic filter: the event ID followed by one OR-set per
// indexed argument, with trailing wildcards dropped.
func (e *Event) topics(match map[string]any) ([][]common.Hash, error) {
	topics := [][]common.Hash{{e.event.ID}}
	if e.event.Anonymous {
		topics = [][]common.Hash{nil}
	}
	for _, in := range e.event.Inputs {
		if !in.Indexed {
			continue
		}
		v, ok := match[in.Name]
		if !ok || v == nil {
			topics = append(topics, nil)
			continue
		}
		values, ok := v.([]any)
		if !ok || in.Type.T == abi.SliceTy || in.Type.T == abi.ArrayTy {
			values = []any{v}
		}
		rule := make([]any, 0, len(values))
		for _, raw := range values {
			c, err := coerce(in.Type, raw)
			if err != nil {
				return nil, fmt.Errorf("%s filter %s: %w", e.Name(), in.Name, err)
			}
			rule = append(rule, c)
		}
		made, err := abi.MakeTopics(rule)
		if err != nil {
			return nil, fmt.Errorf("%s filter %s: %w", e.Name(), in.Name, err)
		}
		topics = append(topics, made[0])
	}
	for len(topics) > 1 && topics[len(topics)-1] == nil {
		topics = topics[:len(topics)-1]
	}
	return topics, nil
}

func (e *Event) decode(l chain.Log) (EventLog, error) {
	out := newEventLog(l)
	out.Event = e.Name()

	topics := l.Topics
	if !e.event.Anonymous {
		if len(topics) == 0 {
			return out, fmt.Errorf("decoding %s: log has no topics", e.Name())
		}
		topics = topics[1:]
	}
	var indexed abi.Arguments
	for _, in := range e.event.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if err := abi.ParseTopicsIntoMap(out.Args, indexed, topics); err != nil {
		return out, fmt.Errorf("decoding %s topics: %w", e.Name(), err)
	}
	if nonIndexed := e.event.Inputs.NonIndexed(); len(nonIndexed) > 0 {
		if err := nonIndexed.UnpackIntoMap(out.Args, l.Data); err != nil {
			return out, fmt.Errorf("decoding %s data: %w", e.Name(), err)
		}
	}
	return out, nil
}

func newEventLog(l chain.Log) EventLog {
	return EventLog{
		Address:     l.Address,
		BlockNumber: uint64(l.BlockNumber),
		TxHash:      l.TxHash,
		LogIndex:    uint(l.LogIndex),
		Removed:     l.Removed,
		Args:        map[string]any{},
		Raw:         l,
	}
}

// AllEvents returns every log emitted by the instance in the block range,
// decoded when its first topic matches a known event. Match is ignored.
func (i *Instance) AllEvents(ctx context.Context, opts FilterOpts) ([]EventLog, error) {
	p := i.factory.provider
	if p == nil {
		return nil, ErrNoProvider
	}
	logs, err := p.FilterLogs(ctx, chain.LogFilter{
		Addresses: []common.Address{i.address},
		FromBlock: opts.FromBlock,
		ToBlock:   opts.ToBlock,
	})
	if err != nil {
		return nil, fmt.Errorf("filtering %s events: %w", i.factory.name, err)
	}
	return i.DecodeLogs(logs)
}

// DecodeLogs decodes logs whose first topic matches one of the instance's
// events, including events merged from linked libraries. Other logs are
// returned undecoded with an empty Event.
func (i *Instance) DecodeLogs(logs []chain.Log) ([]EventLog, error) {
	byTopic := make(map[common.Hash]*Event, len(i.events))
	for _, ev := range i.events {
		if !ev.event.Anonymous {
			byTopic[ev.event.ID] = ev
		}
	}
	out := make([]EventLog, 0, len(logs))
	for _, l := range logs {
		var ev *Event
		if len(l.Topics) > 0 {
			ev = byTopic[l.Topics[0]]
		}
		if ev == nil {
			out = append(out, newEventLog(l))
			continue
		}
		decoded, err := ev.decode(l)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// WatchAll is Watch for every log the instance emits.
func (i *Instance) WatchAll(ctx context.Context, opts FilterOpts, sink func(EventLog) error) error {
	return i.watch(ctx, opts, sink, func(from, to *big.Int) ([]EventLog, error) {
		return i.AllEvents(ctx, FilterOpts{FromBlock: from, ToBlock: to})
	})
}

// ErrStopWatch may be returned by a watch sink to stop watching without an
// error.
var ErrStopWatch = errors.New("stop watching")

type fetchFunc func(from, to *big.Int) ([]EventLog, error)

func (i *Instance) watch(ctx context.Context, opts FilterOpts, sink func(EventLog) error, fetch fetchFunc) error {
	p := i.factory.provider
	if p == nil {
		return ErrNoProvider
	}
	var next *big.Int
	if opts.FromBlock != nil {
		next = new(big.Int).Set(opts.FromBlock)
	}

	for {
		head, err := p.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("polling block number: %w", err)
		}
		if next == nil {
			next = new(big.Int).SetUint64(head + 1)
		} else {
			next, err = deliver(next, new(big.Int).SetUint64(head), opts.ToBlock, sink, fetch)
			if errors.Is(err, ErrStopWatch) {
				return nil
			}
			if err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(i.factory.pollInterval):
		}
	}
}

// deliver fetches blocks next..head (capped at limit) into sink and returns
// the next block to fetch. It returns ErrStopWatch once limit is passed.
func deliver(next, head, limit *big.Int, sink func(EventLog) error, fetch fetchFunc) (*big.Int, error) {
	to := head
	if limit != nil && limit.Cmp(to) < 0 {
		to = new(big.Int).Set(limit)
	}
	if next.Cmp(to) > 0 {
		return next, nil
	}
	logs, err := fetch(next, to)
	if err != nil {
		return next, err
	}
	for _, l := range logs {
		if err := sink(l); err != nil {
			return next, err
		}
	}
	next = new(big.Int).Add(to, big.NewInt(1))
	if limit != nil && next.Cmp(limit) > 0 {
		return next, ErrStopWatch
	}
	return next, nil
}
