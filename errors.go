package flowdag

import "github.com/flowdag/flowdag/internal/flowerrors"

// Sentinel errors surfaced by Run/Resume/Handle.Start (§7). Match against
// these with errors.Is regardless of which internal package raised the
// wrapped error.
var (
	// ErrMissingSpecNodes means the DAG references node names absent from
	// the spec.
	ErrMissingSpecNodes = flowerrors.ErrMissingSpecNodes
	// ErrMissingSnapshot means Resume was called with a nil snapshot.
	ErrMissingSnapshot = flowerrors.ErrMissingSnapshot
	// ErrBranchNotFound means a branching node selected a name that is not
	// one of its declared dependents.
	ErrBranchNotFound = flowerrors.ErrBranchNotFound
	// ErrErroredNodes means the run finished with one or more nodes in the
	// errored state.
	ErrErroredNodes = flowerrors.ErrErroredNodes
)
