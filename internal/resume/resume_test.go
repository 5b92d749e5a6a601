package resume

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/flowerrors"
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

func TestGetResumeSnapshot_KeepsCompletedAndSkipped(t *testing.T) {
	finished := time.Now()
	old := &snapshot.Snapshot{
		Status:  snapshot.RunErrored,
		Started: finished.Add(-time.Hour),
		Finished: &finished,
		Data: map[string]*snapshot.NodeData{
			"api":         {Status: snapshot.NodeCompleted, Output: "ok"},
			"details":     {Status: snapshot.NodeCompleted, Output: "details"},
			"attachments": {Status: snapshot.NodeErrored, State: map[string]any{"index": 0}, Error: snapshot.NewNodeError(errors.New("boom"))},
			"writeToDB":   {Status: snapshot.NodePending},
		},
	}
	reset := GetResumeSnapshot(old, time.Now())

	assert.Equal(t, snapshot.RunRunning, reset.Status)
	assert.Nil(t, reset.Finished)
	assert.Equal(t, snapshot.NodeCompleted, reset.Data["api"].Status)
	assert.Equal(t, "ok", reset.Data["api"].Output)
	assert.Equal(t, snapshot.NodePending, reset.Data["attachments"].Status)
	assert.Equal(t, map[string]any{"index": 0}, reset.Data["attachments"].State)
	assert.Nil(t, reset.Data["attachments"].Error)
	assert.Equal(t, snapshot.NodePending, reset.Data["writeToDB"].Status)
}

func TestGetResumeSnapshot_Idempotent(t *testing.T) {
	old := &snapshot.Snapshot{
		Status: snapshot.RunErrored,
		Data: map[string]*snapshot.NodeData{
			"a": {Status: snapshot.NodeErrored},
			"b": {Status: snapshot.NodeCompleted},
		},
	}
	once := GetResumeSnapshot(old, time.Now())
	twice := GetResumeSnapshot(once, time.Now())
	assert.Equal(t, once.Data["a"].Status, twice.Data["a"].Status)
	assert.Equal(t, once.Data["b"].Status, twice.Data["b"].Status)
}

func TestPrepare_MissingSnapshot(t *testing.T) {
	_, _, err := Prepare(topology.Spec{}, nil, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, flowerrors.ErrMissingSnapshot))
}

func TestPrepare_MissingSpecNode(t *testing.T) {
	old := &snapshot.Snapshot{
		Status: snapshot.RunErrored,
		Data: map[string]*snapshot.NodeData{
			"a": {Status: snapshot.NodeErrored, Deps: nil, Type: topology.Work},
		},
	}
	_, _, err := Prepare(topology.Spec{}, old, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, flowerrors.ErrMissingSpecNodes))
}

func TestPrepare_DerivesDagFromSnapshot(t *testing.T) {
	old := &snapshot.Snapshot{
		Status: snapshot.RunErrored,
		Data: map[string]*snapshot.NodeData{
			"a": {Status: snapshot.NodeCompleted, Deps: nil, Type: topology.Work},
			"b": {Status: snapshot.NodeErrored, Deps: []string{"a"}, Type: topology.Work},
		},
	}
	spec := topology.Spec{"a": {}, "b": {Deps: []string{"a"}}}
	reset, d, err := Prepare(spec, old, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, snapshot.NodePending, reset.Data["b"].Status)
}

func TestAlreadyCompleted(t *testing.T) {
	assert.False(t, AlreadyCompleted(nil))
	assert.True(t, AlreadyCompleted(&snapshot.Snapshot{Status: snapshot.RunCompleted}))
	assert.False(t, AlreadyCompleted(&snapshot.Snapshot{Status: snapshot.RunErrored}))
}
