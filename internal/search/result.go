package search

import (
	"time"

	"crackhash/internal/attack"
)

// State is the coordinator's position in a run: Idle → Dispatching → Draining →
// Terminated. Dispatching may also go straight to Terminated when every chunk
// came back without a match.
type State int

const (
	StateIdle State = iota
	StateDispatching
	StateDraining
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeFound
	OutcomeInterrupted
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFound:
		return "found"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the terminal report of one run.
type Result struct {
	Outcome   Outcome
	Plaintext string
	Mode      attack.Mode

	// Total is the size of the candidate domain, Scanned the number of candidates
	// hashed, including work discarded after the first match or a fault.
	Total   uint64
	Scanned uint64
	Chunks  int
	Retries int
	Elapsed time.Duration

	Err error
}
