// Package event provides the minimal signal/wait/reset capability the
// renderer exposes to the guest as its release event.
//
// An Event is owned by exactly one renderer. The host audio track signals it
// from its playback goroutine when a queued buffer has finished playing, and
// the guest side waits on it from another goroutine. The event stays
// signaled until Reset is called, so a signal delivered before a waiter
// arrives is never lost.
package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Handle is the opaque identifier handed to the guest for an Event.
type Handle uint32

var nextHandle atomic.Uint32

// Event is a manually reset, level-triggered notification.
type Event struct {
	mu       sync.Mutex
	signaled bool
	ch       chan struct{}
	handle   Handle
	signals  uint64
}

// New creates an unsignaled event with a fresh handle.
func New() *Event {
	e := &Event{
		ch:     make(chan struct{}),
		handle: Handle(nextHandle.Add(1)),
	}

	logrus.WithFields(logrus.Fields{
		"function": "event.New",
		"handle":   e.handle,
	}).Debug("Created release event")

	return e
}

// Handle returns the event's identifier. It never changes.
func (e *Event) Handle() Handle {
	return e.handle
}

// Signal sets the event and wakes every waiter. Signaling an already
// signaled event only bumps the signal count.
func (e *Event) Signal() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.signals++
	if e.signaled {
		return
	}
	e.signaled = true
	close(e.ch)
}

// Reset clears the signaled state.
func (e *Event) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.signaled {
		return
	}
	e.signaled = false
	e.ch = make(chan struct{})
}

// IsSignaled reports the current state without blocking.
func (e *Event) IsSignaled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signaled
}

// SignalCount returns how many times Signal has been called.
func (e *Event) SignalCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signals
}

// Wait blocks until the event is signaled or ctx is done.
func (e *Event) Wait(ctx context.Context) error {
	e.mu.Lock()
	ch := e.ch
	e.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
