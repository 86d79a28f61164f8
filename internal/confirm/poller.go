// Package confirm waits for submitted transactions to be mined.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bcamacho/RightsContract/internal/logging"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultInterval = time.Second
	DefaultTimeout  = 240 * time.Second
)

// ErrTimeout is wrapped by the error returned when no receipt shows up in
// time.
var ErrTimeout = errors.New("confirmation timed out")

// LookupFunc fetches the receipt for hash. A nil receipt with a nil error
// means the transaction is not mined yet.
type LookupFunc[R any] func(ctx context.Context, hash common.Hash) (*R, error)

type settings struct {
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	observers []func(Transition)
}

// Option configures a Poller.
type Option func(*settings)

// WithInterval sets the fixed delay between lookups.
func WithInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTimeout sets how long to wait after submission. Zero or negative
// disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// OnState registers an observer for state transitions. Observers run on the
// waiting goroutine and must not block.
func OnState(fn func(Transition)) Option {
	return func(s *settings) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// Poller polls a receipt lookup on a fixed interval until the transaction is
// mined, the lookup fails, the timeout passes or the context ends.
type Poller[R any] struct {
	lookup LookupFunc[R]
	settings

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New returns a poller using lookup.
func New[R any](lookup LookupFunc[R], opts ...Option) *Poller[R] {
	s := settings{interval: DefaultInterval, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	s.logger = logging.OrDiscard(s.logger)
	return &Poller[R]{
		lookup:   lookup,
		settings: s,
		now:      time.Now,
		after:    time.After,
	}
}

// Interval returns the delay between lookups.
func (p *Poller[R]) Interval() time.Duration { return p.interval }

// Timeout returns the configured timeout; zero or less means none.
func (p *Poller[R]) Timeout() time.Duration { return p.timeout }

// Wait blocks until hash has a receipt. The first lookup is issued right
// away; after an empty one the poller sleeps a full interval, so lookups never
// overlap.
func (p *Poller[R]) Wait(ctx context.Context, hash common.Hash) (*R, error) {
	start := p.now()
	p.emit(Transition{Hash: hash, State: Submitted})
	p.emit(Transition{Hash: hash, State: Pending})
	p.logger.Debug("waiting for receipt", "tx", hash.Hex(), "interval", p.interval, "timeout", p.timeout)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		receipt, err := p.lookup(ctx, hash)
		elapsed := p.now().Sub(start)
		if err != nil {
			err = fmt.Errorf("fetching receipt for %s: %w", hash.Hex(), err)
			p.emit(Transition{Hash: hash, State: Errored, Attempt: attempt, Elapsed: elapsed, Err: err})
			return nil, err
		}
		if receipt != nil {
			p.logger.Debug("receipt found", "tx", hash.Hex(), "attempts", attempt, "elapsed", elapsed)
			p.emit(Transition{Hash: hash, State: Confirmed, Attempt: attempt, Elapsed: elapsed})
			return receipt, nil
		}
		if p.timeout > 0 && elapsed > p.timeout {
			err := fmt.Errorf("%w: transaction %s wasn't processed in %g seconds", ErrTimeout, hash.Hex(), p.timeout.Seconds())
			p.emit(Transition{Hash: hash, State: TimedOut, Attempt: attempt, Elapsed: elapsed, Err: err})
			return nil, err
		}
		p.emit(Transition{Hash: hash, State: Pending, Attempt: attempt, Elapsed: elapsed})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.after(p.interval):
		}
	}
}

func (p *Poller[R]) emit(t Transition) {
	for _, fn := range p.observers {
		fn(t)
	}
}
