// Package rundriver wires a dag.DAG, a snapshot.Store, and a
// scheduler.Scheduler into the Handle surface the root package exposes:
// start/stop/getSnapshot/events (§6). It is the dependency-injection layer
// — grounded on specialistvlad-burstgridgo's internal/localsession.SessionFactory, which
// constructs a topology store, a node store, a graph, a scheduler, and an
// executor and wires them into one Session per run.
package rundriver

import (
	"context"
	"sync"
	"time"

	"github.com/flowdag/flowdag/internal/dag"
	"github.com/flowdag/flowdag/internal/eventbus"
	"github.com/flowdag/flowdag/internal/noderunner"
	"github.com/flowdag/flowdag/internal/resume"
	"github.com/flowdag/flowdag/internal/scheduler"
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

// Handle is one run's external surface. Safe for concurrent use: Start is
// idempotent via sync.Once, Stop is idempotent by the scheduler's own
// contract, GetSnapshot/Events touch only the store.
type Handle struct {
	dag   *dag.DAG
	store *snapshot.Store
	sched *scheduler.Scheduler

	noop bool // resume of an already-completed snapshot (§4.6)

	once     sync.Once
	startErr error
}

// Run builds a fresh Handle from spec and opts (§6's run options):
// extracts and filters the DAG, seeds a pending snapshot, and wires a
// Scheduler over a Runner built with hooks merged from any collaborators.
func Run(spec topology.Spec, opts topology.RunOptions, hooks noderunner.Hooks) (*Handle, error) {
	d, err := dag.Build(spec, dag.FilterOptions{
		IncludeNodes: opts.IncludeNodes,
		ExcludeNodes: opts.ExcludeNodes,
	})
	if err != nil {
		return nil, err
	}
	bus := eventbus.New()
	initial := make(map[string]*snapshot.NodeData, d.Len())
	for _, name := range d.Names() {
		n, _ := d.Node(name)
		initial[name] = snapshot.NewPendingNodeData(n.Kind, n.Deps)
	}
	store := snapshot.New(bus, initial, time.Now())
	runner := noderunner.New(spec, d, store, opts.Data != nil, opts.Data, opts.Context, hooks)
	return &Handle{dag: d, store: store, sched: scheduler.New(d, store, runner)}, nil
}

// Resume builds a Handle continuing from old per §4.6: a completed
// snapshot short-circuits to a no-op Handle; otherwise the snapshot's own
// deps/type drive the DAG and reset node data drive the new store.
func Resume(spec topology.Spec, old *snapshot.Snapshot, opts topology.ResumeOptions, hooks noderunner.Hooks) (*Handle, error) {
	if resume.AlreadyCompleted(old) {
		return &Handle{store: snapshot.FromSnapshot(eventbus.New(), old), noop: true}, nil
	}
	reset, d, err := resume.Prepare(spec, old, time.Now())
	if err != nil {
		return nil, err
	}
	bus := eventbus.New()
	store := snapshot.FromSnapshot(bus, reset)
	runner := noderunner.New(spec, d, store, false, nil, opts.Context, hooks)
	return &Handle{dag: d, store: store, sched: scheduler.New(d, store, runner)}, nil
}

// Start begins (or continues) execution, blocking until the run reaches a
// terminal state. Idempotent: a second call returns the first call's
// result without running the scheduler again. A Handle produced for an
// already-completed resume resolves immediately with no effect.
func (h *Handle) Start(ctx context.Context) error {
	if h.noop {
		return nil
	}
	h.once.Do(func() {
		h.startErr = h.sched.Run(ctx)
	})
	return h.startErr
}

// Stop requests cancellation; idempotent; returns immediately.
func (h *Handle) Stop() {
	if h.sched != nil {
		h.sched.Stop()
	}
}

// GetSnapshot returns the live snapshot reference, valid before, during,
// and after termination.
func (h *Handle) GetSnapshot() *snapshot.Snapshot {
	return h.store.Snapshot()
}

// Events exposes the subscription surface backing data/error/done (§6).
func (h *Handle) Events() *eventbus.Bus {
	return h.store.Bus()
}
