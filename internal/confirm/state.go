package confirm

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// State is a stage in the life of a submitted transaction.
type State int

const (
	Submitted State = iota
	Pending
	Confirmed
	TimedOut
	Errored
)

func (s State) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case TimedOut:
		return "timed out"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further lookups follow this state.
func (s State) Terminal() bool {
	return s == Confirmed || s == TimedOut || s == Errored
}

// Transition is delivered to observers each time a wait changes state.
// Pending is reported as soon as polling starts (Attempt 0) and again after
// each empty lookup.
type Transition struct {
	Hash    common.Hash
	State   State
	Attempt int
	Elapsed time.Duration
	Err     error
}
