// Package dag derives the runtime DAG from a topology.Spec: projecting each
// NodeDef to its {deps, type} shape, applying include/exclude filters, and
// validating that every resulting node still has a spec entry (§4.1).
//
// Grounded on specialistvlad-burstgridgo's internal/dag/dag.go and internal/dag/build.go:
// the Graph type there holds a name-keyed node map plus a precomputed
// dependents reverse index under a single mutex, and Build walks the
// declared links before running a DFS cycle check. This DAG carries the
// same shape but is immutable once built — nothing here mutates after
// construction, so no mutex is needed; the scheduler only ever reads it.
package dag

import (
	"fmt"
	"sort"

	"github.com/flowdag/flowdag/internal/flowerrors"
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

// Node is one DAG entry: its declared dependencies and node kind.
type Node struct {
	Name string
	Deps []string
	Kind topology.Kind
}

// DAG is the immutable, filtered runtime graph. Built once per run (or
// rebuilt from a snapshot on resume) and never mutated afterward.
type DAG struct {
	nodes      map[string]*Node
	dependents map[string][]string
	names      []string // stable iteration order, for deterministic logging
}

// Node returns the node definition, or false if unknown.
func (d *DAG) Node(name string) (*Node, bool) {
	n, ok := d.nodes[name]
	return n, ok
}

// Names returns every node name in the DAG, in a stable order.
func (d *DAG) Names() []string {
	return d.names
}

// Len reports the number of nodes in the DAG.
func (d *DAG) Len() int {
	return len(d.nodes)
}

// Dependents returns the direct dependents of name — nodes whose Deps
// include name. Used by branching/suspension fan-out (§4.3.3, §4.3.4).
func (d *DAG) Dependents(name string) []string {
	return d.dependents[name]
}

// newDAG builds the dependents reverse index and stable name list from a
// node map, grounded on specialistvlad-burstgridgo's habit of precomputing
// a dependents index once at construction rather than scanning on every
// query.
func newDAG(nodes map[string]*Node) *DAG {
	dependents := make(map[string][]string, len(nodes))
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, dep := range nodes[name].Deps {
			dependents[dep] = append(dependents[dep], name)
		}
	}
	return &DAG{nodes: nodes, dependents: dependents, names: names}
}

// FilterOptions mirrors topology.RunOptions' include/exclude fields,
// decoupled from RunOptions so Build can be called from both a fresh run
// and any future entrypoint that only has filter names to hand.
type FilterOptions struct {
	IncludeNodes []string
	ExcludeNodes []string
}

// extractDag projects every spec entry to a Node, defaulting an unset Kind
// to topology.Work (the zero value already is Work, so this is a direct
// copy — kept as a named step because §4.1 names it as one).
func extractDag(spec topology.Spec) map[string]*Node {
	nodes := make(map[string]*Node, len(spec))
	for name, def := range spec {
		nodes[name] = &Node{
			Name: name,
			Deps: append([]string(nil), def.Deps...),
			Kind: def.Kind,
		}
	}
	return nodes
}

// filter applies FilterOptions per §4.1: excludeNodes wins if both are
// supplied; otherwise includeNodes restricts; otherwise pass through.
// Surviving nodes have their Deps rewritten to drop references to removed
// nodes. The pass-through case keeps Deps exactly as the spec declares them.
func filter(nodes map[string]*Node, opts FilterOptions) map[string]*Node {
	switch {
	case len(opts.ExcludeNodes) > 0:
		excluded := toSet(opts.ExcludeNodes)
		out := make(map[string]*Node, len(nodes))
		for name, n := range nodes {
			if excluded[name] {
				continue
			}
			out[name] = &Node{Name: n.Name, Kind: n.Kind, Deps: dropExcluded(n.Deps, excluded)}
		}
		return out
	case len(opts.IncludeNodes) > 0:
		included := toSet(opts.IncludeNodes)
		out := make(map[string]*Node, len(included))
		for name, n := range nodes {
			if !included[name] {
				continue
			}
			out[name] = &Node{Name: n.Name, Kind: n.Kind, Deps: keepIncluded(n.Deps, included)}
		}
		return out
	default:
		return nodes
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func dropExcluded(deps []string, excluded map[string]bool) []string {
	if len(deps) == 0 {
		return nil
	}
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if !excluded[d] {
			out = append(out, d)
		}
	}
	return out
}

func keepIncluded(deps []string, included map[string]bool) []string {
	if len(deps) == 0 {
		return nil
	}
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if included[d] {
			out = append(out, d)
		}
	}
	return out
}

// ValidateSpecCoverage fails with flowerrors.ErrMissingSpecNodes naming
// every DAG node absent from spec (§4.1, invariant 1).
func ValidateSpecCoverage(spec topology.Spec, d *DAG) error {
	var missing []string
	for _, name := range d.names {
		if _, ok := spec[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %v", flowerrors.ErrMissingSpecNodes, missing)
}

// Build derives the runtime DAG from spec: extract, filter, detect cycles,
// validate spec coverage. Cycle detection rejects only structurally
// impossible topologies (§1 Non-goals) — it does not attempt to reason
// about semantic validity of a filtered sub-DAG (§4.1 Rationale).
func Build(spec topology.Spec, opts FilterOptions) (*DAG, error) {
	nodes := filter(extractDag(spec), opts)
	d := newDAG(nodes)
	if err := detectCycles(d); err != nil {
		return nil, err
	}
	if err := ValidateSpecCoverage(spec, d); err != nil {
		return nil, err
	}
	return d, nil
}

// FromNodeData rebuilds a DAG directly from a snapshot's persisted
// per-node deps/type, bypassing the spec entirely — the resume path's
// "the snapshot is authoritative for topology" rule (§4.6). The node map can
// only define a given name once, so repeated calls with the same data
// produce an identical DAG.
func FromNodeData(data map[string]*snapshot.NodeData) *DAG {
	nodes := make(map[string]*Node, len(data))
	for name, nd := range data {
		nodes[name] = &Node{
			Name: name,
			Deps: append([]string(nil), nd.Deps...),
			Kind: nd.Type,
		}
	}
	return newDAG(nodes)
}
