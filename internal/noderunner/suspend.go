package noderunner

import (
	"context"
	"time"

	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

// runSuspension runs the optional action (a nil action is an immediately-
// completing suspension, per §4.3.4) and, on success, completes the node
// and suspends every direct dependent with a finished timestamp.
func (r *Runner) runSuspension(ctx context.Context, name string, def *topology.NodeDef, input []any) snapshot.NodeStatus {
	if def.Suspend != nil {
		nd, _ := r.store.Node(name)
		in := topology.ActionInput{Node: name, Data: input, State: nd.State, Context: r.runContext()}
		if err := def.Suspend(ctx, in, r.update(name)); err != nil {
			r.fail(name, err)
			return snapshot.NodeErrored
		}
	}

	now := time.Now()
	_ = r.store.SetSuspensionCompleted(name, now)
	for _, dep := range r.dag.Dependents(name) {
		_ = r.store.SetSuspended(dep, now)
	}
	return snapshot.NodeCompleted
}
