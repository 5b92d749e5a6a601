package noderunner

import "github.com/flowdag/flowdag/internal/topology"

// inputFor computes a node's materialized input per §4.4: cached once in
// the snapshot store, and — for nodes with dependencies — built by walking
// deps in declared order, taking a work dep's output or spreading a
// branching/suspension dep's own input. Nodes with no deps receive
// [optsData] if the run was seeded with data, else the empty sequence.
func (r *Runner) inputFor(name string) []any {
	if nd, ok := r.store.Node(name); ok && nd.Input != nil {
		return nd.Input
	}
	n, _ := r.dag.Node(name)
	var input []any
	if len(n.Deps) == 0 {
		if r.hasData {
			input = []any{r.data}
		} else {
			input = []any{}
		}
		return r.store.SetInputIfAbsent(name, input)
	}
	for _, dep := range n.Deps {
		depNode, _ := r.dag.Node(dep)
		depData, _ := r.store.Node(dep)
		switch depNode.Kind {
		case topology.Work:
			input = append(input, depData.Output)
		default: // Branching, Suspension: spread the dep's own input through
			input = append(input, depData.Input...)
		}
	}
	return r.store.SetInputIfAbsent(name, input)
}
