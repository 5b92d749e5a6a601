package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/dag"
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

func buildLinear(t *testing.T) *dag.DAG {
	t.Helper()
	d, err := dag.Build(topology.Spec{
		"A": {Deps: nil},
		"B": {Deps: []string{"A"}},
	}, dag.FilterOptions{})
	require.NoError(t, err)
	return d
}

func TestReadyToRun_RootsReadyImmediately(t *testing.T) {
	d := buildLinear(t)
	statuses := map[string]snapshot.NodeStatus{
		"A": snapshot.NodePending,
		"B": snapshot.NodePending,
	}
	ready := ReadyToRun(d, statuses, false)
	assert.ElementsMatch(t, []string{"A"}, ready)
}

func TestReadyToRun_UnblocksOnCompletion(t *testing.T) {
	d := buildLinear(t)
	statuses := map[string]snapshot.NodeStatus{
		"A": snapshot.NodeCompleted,
		"B": snapshot.NodePending,
	}
	ready := ReadyToRun(d, statuses, false)
	assert.ElementsMatch(t, []string{"B"}, ready)
}

func TestReadyToRun_SuspendedSkippedErroredDoNotUnblock(t *testing.T) {
	d := buildLinear(t)
	for _, st := range []snapshot.NodeStatus{snapshot.NodeSuspended, snapshot.NodeSkipped, snapshot.NodeErrored, snapshot.NodeRunning} {
		statuses := map[string]snapshot.NodeStatus{
			"A": st,
			"B": snapshot.NodePending,
		}
		assert.Empty(t, ReadyToRun(d, statuses, false), "dep status %s should not unblock", st)
	}
}

func TestReadyToRun_AbortedReturnsEmpty(t *testing.T) {
	d, err := dag.Build(topology.Spec{"A": {Deps: nil}}, dag.FilterOptions{})
	require.NoError(t, err)
	statuses := map[string]snapshot.NodeStatus{"A": snapshot.NodePending}
	assert.Empty(t, ReadyToRun(d, statuses, true))
}

func TestReadyToRun_AbsentStatusTreatedPending(t *testing.T) {
	d, err := dag.Build(topology.Spec{"A": {Deps: nil}}, dag.FilterOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A"}, ReadyToRun(d, map[string]snapshot.NodeStatus{}, false))
}
