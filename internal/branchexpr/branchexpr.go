// Package branchexpr builds a topology.BranchingAction from a single
// expr-lang expression string, so callers can write a branching selector
// as data instead of hand-rolled Go — grounded on rendis-opcode's use of
// expr-lang/expr for condition evaluation in its transition hooks. This is
// a thin, optional convenience layered on the core branching contract in
// §4.3.3; it is not required by the engine.
package branchexpr

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/flowdag/flowdag/internal/topology"
)

// Compile parses expression once. The compiled action evaluates it against
// the branching node's materialized input (`input`), checkpoint (`state`),
// name (`node`), and caller context (`context`); the expression must
// evaluate to a string naming the dependent to activate, or "" / "none"
// to select none.
func Compile(expression string) (topology.BranchingAction, error) {
	program, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("branchexpr: compile %q: %w", expression, err)
	}
	return bind(program), nil
}

func bind(program *vm.Program) topology.BranchingAction {
	return func(in topology.ActionInput) (topology.BranchResult, error) {
		env := map[string]any{
			"input":   in.Data,
			"state":   in.State,
			"node":    in.Node,
			"context": in.Context,
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return topology.BranchResult{}, fmt.Errorf("branchexpr: eval: %w", err)
		}
		name, ok := out.(string)
		if !ok {
			return topology.BranchResult{}, fmt.Errorf("branchexpr: expression must evaluate to a string, got %T", out)
		}
		if name == "" || name == "none" {
			return topology.NoBranch(), nil
		}
		return topology.Branch(name), nil
	}
}
