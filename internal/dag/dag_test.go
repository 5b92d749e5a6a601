package dag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/flowerrors"
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

func linearSpec() topology.Spec {
	return topology.Spec{
		"A": {Deps: nil},
		"B": {Deps: []string{"A"}},
	}
}

func TestBuild_Linear(t *testing.T) {
	d, err := Build(linearSpec(), FilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.ElementsMatch(t, []string{"B"}, d.Dependents("A"))
}

func TestBuild_ExcludeWinsOverInclude(t *testing.T) {
	spec := topology.Spec{
		"A": {Deps: nil},
		"B": {Deps: []string{"A"}},
		"C": {Deps: []string{"B"}},
	}
	d, err := Build(spec, FilterOptions{
		IncludeNodes: []string{"A", "B"},
		ExcludeNodes: []string{"B"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	_, hasB := d.Node("B")
	assert.False(t, hasB)
}

func TestBuild_ExcludeRewritesDeps(t *testing.T) {
	spec := topology.Spec{
		"A": {Deps: nil},
		"B": {Deps: []string{"A"}},
		"C": {Deps: []string{"A", "B"}},
	}
	d, err := Build(spec, FilterOptions{ExcludeNodes: []string{"B"}})
	require.NoError(t, err)
	c, ok := d.Node("C")
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, c.Deps)
}

func TestBuild_MissingSpecNodeAfterRebuild(t *testing.T) {
	// FromNodeData rebuilds the DAG from a snapshot, which can carry
	// forward nodes from a prior spec version. ValidateSpecCoverage should
	// still catch a top-level node absent from the current spec.
	data := map[string]*snapshot.NodeData{
		"A": {Deps: nil, Type: topology.Work},
		"Z": {Deps: []string{"A"}, Type: topology.Work},
	}
	d := FromNodeData(data)
	err := ValidateSpecCoverage(topology.Spec{"A": {}}, d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, flowerrors.ErrMissingSpecNodes))
}

func TestDetectCycles(t *testing.T) {
	spec := topology.Spec{
		"A": {Deps: []string{"B"}},
		"B": {Deps: []string{"A"}},
	}
	_, err := Build(spec, FilterOptions{})
	require.Error(t, err)
}

func TestFromNodeData_Idempotent(t *testing.T) {
	data := map[string]*snapshot.NodeData{
		"A": {Deps: nil, Type: topology.Work},
		"B": {Deps: []string{"A"}, Type: topology.Branching},
	}
	d1 := FromNodeData(data)
	d2 := FromNodeData(data)
	assert.Equal(t, d1.Names(), d2.Names())
	assert.ElementsMatch(t, d1.Dependents("A"), d2.Dependents("A"))
}
