// Package topology defines the user-facing contract for a run: the Spec a
// caller builds, the three node kinds and their action callbacks, and the
// options accepted by a run or a resume.
//
// This is the one package every other internal package is allowed to depend
// on for the shape of a node's action — it has no dependencies of its own
// on dag, snapshot, scheduler, etc., which keeps the dependency graph of the
// engine itself acyclic.
package topology

import "context"

// Kind distinguishes the three node variants a Spec can declare. The zero
// value is Work, matching the spec's "implicit type defaulting to Work".
type Kind int

const (
	// Work nodes run a callback and produce an output consumed by dependents.
	Work Kind = iota
	// Branching nodes run a synchronous selector that activates at most one
	// dependent subgraph.
	Branching
	// Suspension nodes run an optional side-effecting callback and then halt
	// every direct dependent until an external event triggers a resume.
	Suspension
)

func (k Kind) String() string {
	switch k {
	case Work:
		return "work"
	case Branching:
		return "branching"
	case Suspension:
		return "suspension"
	default:
		return "unknown"
	}
}

// ActionInput is what every action callback receives: the materialized,
// ordered input sequence (§4.4), the node's own last checkpoint (from a
// prior run or a resume), the node's name, and the caller-supplied context
// blob (RunOptions.Context / ResumeOptions.Context, passed through
// unchanged — distinct from the Go context.Context used for cancellation).
type ActionInput struct {
	Node    string
	Data    []any
	State   any
	Context any
}

// UpdateState overwrites a node's checkpoint while it is running. It is only
// valid to call from within that node's own action.
type UpdateState func(state any)

// WorkAction is a node callback whose return value becomes the node's output.
type WorkAction func(ctx context.Context, in ActionInput, update UpdateState) (output any, err error)

// SuspensionAction is an optional, side-effect-only callback for a
// Suspension node. A nil action is an immediately-completing suspension.
type SuspensionAction func(ctx context.Context, in ActionInput, update UpdateState) error

// BranchResult is what a BranchingAction returns: either a chosen dependent
// name, or "none" with no dependent activated.
type BranchResult struct {
	name   string
	reason string
	isNone bool
}

// Branch selects the named dependent to activate, with an optional reason.
func Branch(name string, reason ...string) BranchResult {
	r := BranchResult{name: name}
	if len(reason) > 0 {
		r.reason = reason[0]
	}
	return r
}

// NoBranch activates none of the branching node's dependents.
func NoBranch(reason ...string) BranchResult {
	r := BranchResult{isNone: true}
	if len(reason) > 0 {
		r.reason = reason[0]
	}
	return r
}

// Name returns the selected dependent name, or "" if this is a "none" result.
func (r BranchResult) Name() string { return r.name }

// Reason returns the optional free-text reason stamped by the selector.
func (r BranchResult) Reason() string { return r.reason }

// IsNone reports whether no dependent was selected.
func (r BranchResult) IsNone() bool { return r.isNone }

// BranchingAction is a synchronous selector for a Branching node.
type BranchingAction func(in ActionInput) (BranchResult, error)

// NodeDef is a tagged variant: exactly one of Work, Branch, or Suspend is
// meaningful, selected by Kind.
type NodeDef struct {
	// Deps is the ordered list of dependency node names; order determines
	// the positional order of materialized inputs (§4.4).
	Deps []string
	// Kind selects which of Work / Branch / Suspend applies.
	Kind Kind

	Work    WorkAction
	Branch  BranchingAction
	Suspend SuspensionAction
}

// Spec is the immutable, user-supplied mapping from node name to definition.
type Spec map[string]*NodeDef

// RunOptions configures a fresh run.
type RunOptions struct {
	// IncludeNodes restricts the DAG to these nodes (and their surviving
	// dependency references). Ignored if ExcludeNodes is also set.
	IncludeNodes []string
	// ExcludeNodes removes these nodes from the DAG. Takes precedence over
	// IncludeNodes if both are supplied.
	ExcludeNodes []string
	// Data seeds the input of every dependency-free node, wrapped as a
	// single-element input sequence.
	Data any
	// Context is passed unchanged to every node's ActionInput.Context. It is
	// never persisted in the snapshot.
	Context any
}

// ResumeOptions configures a resumed run. Only Context carries over; the
// DAG shape and per-node checkpoints come from the snapshot itself.
type ResumeOptions struct {
	Context any
}
