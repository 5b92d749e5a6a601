// Package resume converts a finalized snapshot into one that can drive a
// fresh scheduler loop (§4.6): completed and skipped nodes are kept as-is,
// everything else resets to pending while preserving input/state/deps/
// type. The DAG shape for a resumed run comes from the reset snapshot's
// own deps/type, not the spec — the snapshot is authoritative for
// topology on resume.
package resume

import (
	"time"

	"github.com/flowdag/flowdag/internal/dag"
	"github.com/flowdag/flowdag/internal/flowerrors"
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

// GetResumeSnapshot produces a new runnable Snapshot from old, per §4.6.
// old must not be nil; callers check for a missing snapshot before calling
// this (see Prepare).
func GetResumeSnapshot(old *snapshot.Snapshot, now time.Time) *snapshot.Snapshot {
	data := make(map[string]*snapshot.NodeData, len(old.Data))
	for name, nd := range old.Data {
		if nd.Status == snapshot.NodeCompleted || nd.Status == snapshot.NodeSkipped {
			data[name] = nd.Clone()
			continue
		}
		data[name] = &snapshot.NodeData{
			Type:   nd.Type,
			Deps:   append([]string(nil), nd.Deps...),
			Status: snapshot.NodePending,
			Input:  nd.Input,
			State:  nd.State,
		}
	}
	return &snapshot.Snapshot{
		Status:  snapshot.RunRunning,
		Started: now,
		Data:    data,
	}
}

// Prepare validates and builds everything a resumed run needs: the reset
// snapshot, and the DAG derived from its deps/type. Returns
// flowerrors.ErrMissingSnapshot if old is nil, and
// flowerrors.ErrMissingSpecNodes if the snapshot references a node with no
// corresponding spec entry — callbacks must still be present even though
// the DAG shape itself is not re-derived from the spec (§9 Open Questions).
func Prepare(spec topology.Spec, old *snapshot.Snapshot, now time.Time) (*snapshot.Snapshot, *dag.DAG, error) {
	if old == nil {
		return nil, nil, flowerrors.ErrMissingSnapshot
	}
	reset := GetResumeSnapshot(old, now)
	d := dag.FromNodeData(reset.Data)
	if err := dag.ValidateSpecCoverage(spec, d); err != nil {
		return nil, nil, err
	}
	return reset, d, nil
}

// AlreadyCompleted reports whether old is a completed snapshot, in which
// case resumeTopology's contract is "return a run handle whose start()
// resolves immediately with no effect" (§4.6) — idempotent resume of a
// finished run.
func AlreadyCompleted(old *snapshot.Snapshot) bool {
	return old != nil && old.Status == snapshot.RunCompleted
}
