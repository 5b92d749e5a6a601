package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/dag"
	"github.com/flowdag/flowdag/internal/eventbus"
	"github.com/flowdag/flowdag/internal/flowerrors"
	"github.com/flowdag/flowdag/internal/noderunner"
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

func buildAll(t *testing.T, spec topology.Spec) (*dag.DAG, *snapshot.Store, *Scheduler) {
	t.Helper()
	d, err := dag.Build(spec, dag.FilterOptions{})
	require.NoError(t, err)
	initial := make(map[string]*snapshot.NodeData, d.Len())
	for _, name := range d.Names() {
		n, _ := d.Node(name)
		initial[name] = snapshot.NewPendingNodeData(n.Kind, n.Deps)
	}
	store := snapshot.New(eventbus.New(), initial, time.Now())
	runner := noderunner.New(spec, d, store, false, nil, nil, noderunner.Hooks{})
	return d, store, New(d, store, runner)
}

func work(fn func(in topology.ActionInput) (any, error)) topology.WorkAction {
	return func(ctx context.Context, in topology.ActionInput, update topology.UpdateState) (any, error) {
		return fn(in)
	}
}

// S1 — Linear pipeline success.
func TestScheduler_LinearPipeline(t *testing.T) {
	spec := topology.Spec{
		"A": {Work: work(func(in topology.ActionInput) (any, error) { return []int{1, 2, 3}, nil })},
		"B": {Deps: []string{"A"}, Work: work(func(in topology.ActionInput) (any, error) {
			return len(in.Data[0].([]int)), nil
		})},
	}
	_, store, sched := buildAll(t, spec)
	err := sched.Run(context.Background())
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.Equal(t, snapshot.RunCompleted, snap.Status)
	assert.Equal(t, []int{1, 2, 3}, snap.Data["A"].Output)
	assert.Equal(t, [][]int{{1, 2, 3}}[0], snap.Data["B"].Input[0])
	assert.Equal(t, 3, snap.Data["B"].Output)
}

// S2 — Diamond with error.
func TestScheduler_DiamondWithError(t *testing.T) {
	spec := topology.Spec{
		"api":         {Work: work(func(in topology.ActionInput) (any, error) { return "ok", nil })},
		"details":     {Deps: []string{"api"}, Work: work(func(in topology.ActionInput) (any, error) { return "details", nil })},
		"attachments": {Deps: []string{"api"}},
		"writeToDB":   {Deps: []string{"details", "attachments"}, Work: work(func(in topology.ActionInput) (any, error) { return nil, nil })},
	}
	spec["attachments"].Work = func(ctx context.Context, in topology.ActionInput, update topology.UpdateState) (any, error) {
		update(map[string]any{"index": 0, "output": map[int]string{1: "file1.jpg"}})
		return nil, errors.New("Failed processing id: 2")
	}

	_, store, sched := buildAll(t, spec)
	err := sched.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, flowerrors.ErrErroredNodes))

	snap := store.Snapshot()
	assert.Equal(t, snapshot.RunErrored, snap.Status)
	assert.Equal(t, snapshot.NodeCompleted, snap.Data["api"].Status)
	assert.Equal(t, snapshot.NodeCompleted, snap.Data["details"].Status)
	assert.Equal(t, snapshot.NodeErrored, snap.Data["attachments"].Status)
	assert.Equal(t, "Failed processing id: 2", snap.Data["attachments"].Error.Message)
	assert.Equal(t, snapshot.NodePending, snap.Data["writeToDB"].Status)
}

// S4 — Branching.
func TestScheduler_Branching(t *testing.T) {
	spec := topology.Spec{
		"lookup": {Work: work(func(in topology.ActionInput) (any, error) { return nil, nil })},
		"determineIfQualified": {
			Deps: []string{"lookup"},
			Kind: topology.Branching,
			Branch: func(in topology.ActionInput) (topology.BranchResult, error) {
				return topology.Branch("qualified", "meets bar"), nil
			},
		},
		"qualified":        {Deps: []string{"determineIfQualified"}, Work: work(func(in topology.ActionInput) (any, error) { return nil, nil })},
		"notQualified":     {Deps: []string{"determineIfQualified"}, Work: work(func(in topology.ActionInput) (any, error) { return nil, nil })},
		"removeCandidate":  {Deps: []string{"notQualified"}, Work: work(func(in topology.ActionInput) (any, error) { return nil, nil })},
	}
	_, store, sched := buildAll(t, spec)
	err := sched.Run(context.Background())
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.Equal(t, snapshot.RunCompleted, snap.Status)
	assert.Equal(t, snapshot.NodeCompleted, snap.Data["qualified"].Status)
	assert.Equal(t, snapshot.NodeSkipped, snap.Data["notQualified"].Status)
	assert.Equal(t, snapshot.NodeSkipped, snap.Data["removeCandidate"].Status)
}

// S5 — Suspension.
func TestScheduler_Suspension(t *testing.T) {
	spec := topology.Spec{
		"input":    {Work: work(func(in topology.ActionInput) (any, error) { return "seed", nil })},
		"lookupA":  {Deps: []string{"input"}, Work: work(func(in topology.ActionInput) (any, error) { return "a", nil })},
		"lookupB":  {Deps: []string{"input"}, Work: work(func(in topology.ActionInput) (any, error) { return "b", nil })},
		"authorization": {Deps: []string{"lookupA", "lookupB"}, Kind: topology.Suspension},
		"email":    {Deps: []string{"authorization"}, Work: work(func(in topology.ActionInput) (any, error) { return "sent", nil })},
	}
	_, store, sched := buildAll(t, spec)
	err := sched.Run(context.Background())
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.Equal(t, snapshot.RunSuspended, snap.Status)
	assert.Equal(t, snapshot.NodeCompleted, snap.Data["authorization"].Status)
	assert.Equal(t, snapshot.NodeSuspended, snap.Data["email"].Status)
}

func TestScheduler_ZeroNodes(t *testing.T) {
	_, store, sched := buildAll(t, topology.Spec{})
	err := sched.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snapshot.RunCompleted, store.Snapshot().Status)
}

func TestScheduler_Stop_CancelsCooperatively(t *testing.T) {
	started := make(chan struct{})
	spec := topology.Spec{
		"loop": {Work: func(ctx context.Context, in topology.ActionInput, update topology.UpdateState) (any, error) {
			close(started)
			for i := 0; i < 50; i++ {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(10 * time.Millisecond):
					update(map[string]any{"index": i})
				}
			}
			return nil, nil
		}},
	}
	_, store, sched := buildAll(t, spec)

	done := make(chan error, 1)
	go func() { done <- sched.Run(context.Background()) }()

	<-started
	time.Sleep(20 * time.Millisecond)
	sched.Stop()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, snapshot.RunErrored, store.Snapshot().Status)
		assert.Equal(t, snapshot.NodeErrored, store.Snapshot().Data["loop"].Status)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
