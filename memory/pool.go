package memory

import (
	"errors"
	"fmt"

	"github.com/opd-ai/audren/limits"
	"github.com/opd-ai/audren/update"
	"github.com/sirupsen/logrus"
)

// ErrInvalidAddress indicates an attach request with a range that is empty,
// misaligned or overflows the address space.
var ErrInvalidAddress = errors.New("invalid memory pool address")

// State is the lifecycle state of a memory pool. The values are the guest's
// wire encoding.
type State uint32

const (
	StateInvalid State = iota
	StateUnknown
	StateRequestDetach
	StateDetached
	StateRequestAttach
	StateAttached
	StateReleased
)

var stateNames = [...]string{
	StateInvalid:       "Invalid",
	StateUnknown:       "Unknown",
	StateRequestDetach: "RequestDetach",
	StateDetached:      "Detached",
	StateRequestAttach: "RequestAttach",
	StateAttached:      "Attached",
	StateReleased:      "Released",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint32(s))
}

// Change reports what an applied request did to a pool.
type Change int

const (
	// ChangeNone leaves mappings as they were
	ChangeNone Change = iota
	// ChangeAttached maps a new range
	ChangeAttached
	// ChangeDetached unmaps the previously attached range
	ChangeDetached
)

// Pool is one guest memory range the renderer may read from.
type Pool struct {
	Address uint64
	Size    uint64
	State   State
}

// Contains reports whether [address, address+size) lies inside the pool.
func (p *Pool) Contains(address, size uint64) bool {
	if address < p.Address {
		return false
	}
	end := address + size
	if end < address {
		return false
	}
	return end <= p.Address+p.Size
}

// Apply runs one guest request through the pool state machine.
//
// A failed attach leaves the pool Invalid and returns an error wrapping
// ErrInvalidAddress. Requests that restate the current state are no-ops.
func (p *Pool) Apply(in update.MemoryPoolIn) (Change, error) {
	switch State(in.State) {
	case StateRequestAttach:
		if p.State == StateAttached && p.Address == in.Address && p.Size == in.Size {
			return ChangeNone, nil
		}
		wasAttached := p.State == StateAttached
		if err := limits.ValidateRange(in.Address, in.Size); err != nil {
			*p = Pool{State: StateInvalid}
			if wasAttached {
				return ChangeDetached, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
			}
			return ChangeNone, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
		}
		*p = Pool{Address: in.Address, Size: in.Size, State: StateAttached}
		return ChangeAttached, nil

	case StateRequestDetach:
		if p.State != StateAttached {
			return ChangeNone, nil
		}
		p.State = StateDetached
		return ChangeDetached, nil

	case StateReleased:
		wasAttached := p.State == StateAttached
		*p = Pool{State: StateReleased}
		if wasAttached {
			return ChangeDetached, nil
		}
		return ChangeNone, nil
	}
	return ChangeNone, nil
}

// Table is the renderer's fixed vector of memory pools, addressed by the
// guest's pool index.
type Table struct {
	pools []Pool
}

// NewTable allocates count pools in the Invalid state.
func NewTable(count int) *Table {
	return &Table{pools: make([]Pool, count)}
}

// Len returns the number of pools.
func (t *Table) Len() int {
	return len(t.pools)
}

// Get returns a copy of pool i.
func (t *Table) Get(i int) Pool {
	return t.pools[i]
}

// Apply applies the request for pool i.
func (t *Table) Apply(i int, in update.MemoryPoolIn) (Change, error) {
	change, err := t.pools[i].Apply(in)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Table.Apply",
			"pool":     i,
			"address":  fmt.Sprintf("%#x", in.Address),
			"size":     fmt.Sprintf("%#x", in.Size),
			"error":    err.Error(),
		}).Warn("Memory pool attach rejected")
		return change, err
	}

	if change != ChangeNone {
		logrus.WithFields(logrus.Fields{
			"function": "Table.Apply",
			"pool":     i,
			"state":    t.pools[i].State.String(),
			"address":  fmt.Sprintf("%#x", t.pools[i].Address),
			"size":     fmt.Sprintf("%#x", t.pools[i].Size),
		}).Debug("Memory pool state changed")
	}
	return change, nil
}

// Contains reports whether the range lies entirely inside one attached pool.
// A zero sized range is never mapped.
func (t *Table) Contains(address, size uint64) bool {
	if size == 0 {
		return false
	}
	for i := range t.pools {
		p := &t.pools[i]
		if p.State == StateAttached && p.Contains(address, size) {
			return true
		}
	}
	return false
}

// States returns the wire state of every pool, for the response.
func (t *Table) States() []uint32 {
	out := make([]uint32, len(t.pools))
	for i, p := range t.pools {
		out[i] = uint32(p.State)
	}
	return out
}
