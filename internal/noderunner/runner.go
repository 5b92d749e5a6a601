// Package noderunner invokes a node's type-specific action and translates
// its result into snapshot transitions (§4.3, §4.4). It is the one package
// that touches user callbacks directly; the scheduler only ever talks to
// it through Dispatch and the Settled channel.
//
// Grounded on specialistvlad-burstgridgo's internal/executor/worker.go:
// that loop reads a node off readyChan, flips it to running, dispatches to
// a kind-specific run*Node helper, and reports completion back to the
// executor's wait group. The same run*Node-per-kind split is kept here,
// generalized from that repo's Resource/Step/Placeholder trio to
// Work/Branching/Suspension.
package noderunner

import (
	"context"
	"fmt"
	"time"

	"github.com/flowdag/flowdag/internal/ctxlog"
	"github.com/flowdag/flowdag/internal/dag"
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

// Hooks lets an optional collaborator (internal/metrics, internal/tracing)
// observe dispatch and settlement without the runner depending on either.
// Every field is optional; a nil field is simply not called.
type Hooks struct {
	OnDispatch func(node string, kind topology.Kind)
	OnSettle   func(node string, kind topology.Kind, status snapshot.NodeStatus, dur time.Duration)
}

// MergeHooks combines any number of Hooks into one that calls every
// non-nil callback in order. Lets the root package compose independent
// collaborators (internal/metrics, internal/tracing) without either
// knowing about the other.
func MergeHooks(hooks ...Hooks) Hooks {
	merged := Hooks{}
	for _, h := range hooks {
		h := h
		if h.OnDispatch != nil {
			prev := merged.OnDispatch
			merged.OnDispatch = func(node string, kind topology.Kind) {
				if prev != nil {
					prev(node, kind)
				}
				h.OnDispatch(node, kind)
			}
		}
		if h.OnSettle != nil {
			prev := merged.OnSettle
			merged.OnSettle = func(node string, kind topology.Kind, status snapshot.NodeStatus, dur time.Duration) {
				if prev != nil {
					prev(node, kind, status, dur)
				}
				h.OnSettle(node, kind, status, dur)
			}
		}
	}
	return merged
}

// Settlement reports that a node finished its dispatch (successfully or
// not); the scheduler uses it only to know "something settled", not for
// its payload — all authoritative state lives in the snapshot store.
type Settlement struct {
	Node string
}

// Runner invokes node actions and owns input materialization. One Runner
// per run; it is not safe to share across concurrent runs since it closes
// over a single run's dag/store/data.
type Runner struct {
	spec        topology.Spec
	dag         *dag.DAG
	store       *snapshot.Store
	hasData     bool
	data        any
	callerCtx   any
	hooks       Hooks
}

// New builds a Runner for one run. optsData/hasData distinguish "no seed
// data" from "seed data whose zero value looks empty" per §4.4. callerCtx
// is the caller-supplied RunOptions.Context/ResumeOptions.Context blob,
// passed unchanged to every action and never persisted in the snapshot.
func New(spec topology.Spec, d *dag.DAG, store *snapshot.Store, hasData bool, data any, callerCtx any, hooks Hooks) *Runner {
	return &Runner{spec: spec, dag: d, store: store, hasData: hasData, data: data, callerCtx: callerCtx, hooks: hooks}
}

// Dispatch transitions name to running and asynchronously drives its
// action to completion, sending exactly one Settlement on done when it
// settles (success, error, or — for branching/suspension — after fan-out).
// The goroutine boundary is the same "await any in-flight to settle"
// suspension point named in §5; branching's selector is synchronous work
// but is still reported through done so the scheduler's loop stays
// uniform across node kinds.
func (r *Runner) Dispatch(ctx context.Context, name string, done chan<- Settlement) {
	n, _ := r.dag.Node(name)
	input := r.inputFor(name)
	now := time.Now()
	_ = r.store.SetRunning(name, input, now)
	if r.hooks.OnDispatch != nil {
		r.hooks.OnDispatch(name, n.Kind)
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("dispatching node", "node", name, "kind", n.Kind.String())

	go func() {
		start := time.Now()
		status := r.run(ctx, name, n, input)
		if r.hooks.OnSettle != nil {
			r.hooks.OnSettle(name, n.Kind, status, time.Since(start))
		}
		done <- Settlement{Node: name}
	}()
}

// run dispatches by kind and returns the node's terminal status, recovering
// a panicking callback into an errored node the same way a returned error
// would be handled — user callbacks are arbitrary code and §9 only
// distinguishes "threw" from "returned", not panic from error return.
func (r *Runner) run(ctx context.Context, name string, n *dag.Node, input []any) (status snapshot.NodeStatus) {
	def := r.spec[name]
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(name, fmt.Errorf("node %q panicked: %v", name, rec))
			status = snapshot.NodeErrored
		}
	}()
	switch n.Kind {
	case topology.Branching:
		return r.runBranching(name, def, input)
	case topology.Suspension:
		return r.runSuspension(ctx, name, def, input)
	default:
		return r.runWork(ctx, name, def, input)
	}
}

func (r *Runner) update(name string) topology.UpdateState {
	return func(state any) {
		_ = r.store.UpdateState(name, state)
	}
}

func (r *Runner) fail(name string, err error) {
	_ = r.store.SetErrored(name, snapshot.NewNodeError(err), time.Now())
}

// runWork executes a Work action and records output or error (§4.3.2).
func (r *Runner) runWork(ctx context.Context, name string, def *topology.NodeDef, input []any) snapshot.NodeStatus {
	nd, _ := r.store.Node(name)
	in := topology.ActionInput{Node: name, Data: input, State: nd.State, Context: r.runContext()}
	output, err := def.Work(ctx, in, r.update(name))
	if err != nil {
		r.fail(name, err)
		return snapshot.NodeErrored
	}
	_ = r.store.SetWorkCompleted(name, output, time.Now())
	return snapshot.NodeCompleted
}

func (r *Runner) runContext() any {
	return r.callerCtx
}
