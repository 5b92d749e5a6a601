package noderunner

import (
	"fmt"
	"time"

	"github.com/flowdag/flowdag/internal/flowerrors"
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

// runBranching runs the synchronous selector and fans out per §4.3.3:
// "none" skips every direct dependent; a named branch skips every direct
// dependent except the chosen one; an unrecognized name errors the
// branching node itself rather than touching any dependent.
func (r *Runner) runBranching(name string, def *topology.NodeDef, input []any) snapshot.NodeStatus {
	nd, _ := r.store.Node(name)
	in := topology.ActionInput{Node: name, Data: input, State: nd.State, Context: r.runContext()}
	result, err := def.Branch(in)
	if err != nil {
		r.fail(name, err)
		return snapshot.NodeErrored
	}

	now := time.Now()
	dependents := r.dag.Dependents(name)

	if result.IsNone() {
		_ = r.store.SetBranchCompleted(name, snapshot.NoneSelected, result.Reason(), now)
		for _, dep := range dependents {
			_ = r.store.SetSkipped(dep)
		}
		return snapshot.NodeCompleted
	}

	selected := result.Name()
	if !contains(dependents, selected) {
		r.fail(name, fmt.Errorf("%w: %q selected by %q", flowerrors.ErrBranchNotFound, selected, name))
		return snapshot.NodeErrored
	}

	_ = r.store.SetBranchCompleted(name, selected, result.Reason(), now)
	for _, dep := range dependents {
		if dep == selected {
			continue
		}
		_ = r.store.SetSkipped(dep)
	}
	return snapshot.NodeCompleted
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
