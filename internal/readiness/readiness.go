// Package readiness computes, given a DAG and a point-in-time status view,
// the set of nodes now eligible to run (§4.2). It is deliberately a pure
// function of its two inputs — no state of its own — so the scheduler can
// call it freely on every loop iteration.
package readiness

import (
	"github.com/flowdag/flowdag/internal/dag"
	"github.com/flowdag/flowdag/internal/snapshot"
)

// ReadyToRun returns the names of every node whose own status is pending
// (or absent, treated as pending) and whose every dependency is completed.
// Dependencies that are suspended, skipped, errored, or still running do
// not unblock a node — propagation of those terminal states to dependents
// is the node runner's job (§4.3.3, §4.3.4), not the readiness oracle's.
//
// statuses should come from snapshot.Store.StatusSnapshot, a copy taken
// under the store's lock, so this scan never races a concurrent mutation.
//
// Returns nil (the empty set) once aborted is true, realizing §4.3.5's "no
// new nodes are dispatched after cancellation" rule without the caller
// needing a separate branch.
func ReadyToRun(d *dag.DAG, statuses map[string]snapshot.NodeStatus, aborted bool) []string {
	if aborted {
		return nil
	}
	var ready []string
	for _, name := range d.Names() {
		status, ok := statuses[name]
		if !ok {
			status = snapshot.NodePending
		}
		if status != snapshot.NodePending {
			continue
		}
		n, _ := d.Node(name)
		if allDepsCompleted(n.Deps, statuses) {
			ready = append(ready, name)
		}
	}
	return ready
}

func allDepsCompleted(deps []string, statuses map[string]snapshot.NodeStatus) bool {
	for _, dep := range deps {
		status, ok := statuses[dep]
		if !ok || status != snapshot.NodeCompleted {
			return false
		}
	}
	return true
}
