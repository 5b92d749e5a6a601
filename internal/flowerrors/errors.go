// Package flowerrors defines the sentinel error kinds surfaced across the
// engine, so callers can use errors.Is regardless of which package raised
// the wrapped error.
package flowerrors

import "errors"

var (
	// ErrMissingSpecNodes is returned when the DAG references node names that
	// have no corresponding entry in the spec.
	ErrMissingSpecNodes = errors.New("missing spec nodes")

	// ErrMissingSnapshot is returned by Resume when no snapshot is supplied.
	ErrMissingSnapshot = errors.New("missing snapshot")

	// ErrBranchNotFound is returned when a branching node selects a name that
	// is not one of its declared dependents.
	ErrBranchNotFound = errors.New("branch target not found among dependents")

	// ErrErroredNodes is returned by Start when the run finished with one or
	// more nodes in the errored state.
	ErrErroredNodes = errors.New("one or more nodes errored")
)
