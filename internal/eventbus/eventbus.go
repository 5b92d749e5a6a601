// Package eventbus is a small multi-listener publisher with three topics —
// data, error, and done — matching the External Interfaces contract in
// §4.7/§6. Emissions are synchronous with the mutation that caused them: a
// subscriber's callback runs on whichever goroutine made the mutation (the
// scheduler's, or a node's own goroutine for completions and state
// updates). snapshot.Store publishes data events while still holding its
// lock, so data listeners must not call back into the Store (for example
// through a Handle's GetSnapshot).
//
// specialistvlad-burstgridgo has no precedent for a bus of this shape; the
// callback-registration style here is grounded in rendis-opcode's
// hook-registration idiom (transition hooks keyed by topic, fired in
// registration order), generalized from a single-purpose FSM hook list to a
// three-topic publisher.
package eventbus

import (
	"sync"

	"github.com/flowdag/flowdag/internal/snapshot"
)

// DataFunc receives the live snapshot after any mutation.
type DataFunc func(snap *snapshot.Snapshot)

// ErrorFunc receives the live snapshot exactly once, when the run reaches
// the errored terminal state.
type ErrorFunc func(snap *snapshot.Snapshot, err error)

// DoneFunc receives the live snapshot exactly once, when the run reaches
// the completed or suspended terminal state.
type DoneFunc func(snap *snapshot.Snapshot)

// Bus is a thread-safe, multi-listener publisher for a single run.
type Bus struct {
	mu   sync.Mutex
	data []DataFunc
	errs []ErrorFunc
	done []DoneFunc
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{}
}

// OnData registers a listener for every snapshot mutation.
func (b *Bus) OnData(fn DataFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, fn)
}

// OnError registers a listener fired once, on terminal failure.
func (b *Bus) OnError(fn ErrorFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs = append(b.errs, fn)
}

// OnDone registers a listener fired once, on terminal success or suspension.
func (b *Bus) OnDone(fn DoneFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done = append(b.done, fn)
}

// PublishData fires every data listener with the live snapshot reference.
func (b *Bus) PublishData(snap *snapshot.Snapshot) {
	b.mu.Lock()
	listeners := append([]DataFunc(nil), b.data...)
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// PublishError fires every error listener. Callers must ensure this is
// invoked at most once per run.
func (b *Bus) PublishError(snap *snapshot.Snapshot, err error) {
	b.mu.Lock()
	listeners := append([]ErrorFunc(nil), b.errs...)
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(snap, err)
	}
}

// PublishDone fires every done listener. Callers must ensure this is
// invoked at most once per run.
func (b *Bus) PublishDone(snap *snapshot.Snapshot) {
	b.mu.Lock()
	listeners := append([]DoneFunc(nil), b.done...)
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}
