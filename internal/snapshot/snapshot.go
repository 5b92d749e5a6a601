// Package snapshot owns the live, mutable state of a single run: the
// per-node NodeData records and the run-level Snapshot they live in. It is
// the "Snapshot store" component of §4 — the in-memory owner of the live
// run's state, emitting a live reference on every mutation via an injected
// eventbus.
package snapshot

import (
	"time"

	"github.com/flowdag/flowdag/internal/topology"
)

// NodeData is the complete observable state of one node (§3).
type NodeData struct {
	Type   topology.Kind `json:"type"`
	Deps   []string      `json:"deps"`
	Status NodeStatus    `json:"status"`

	Started  *time.Time `json:"started,omitempty"`
	Finished *time.Time `json:"finished,omitempty"`

	Input  []any `json:"input,omitempty"`
	Output any   `json:"output,omitempty"`
	State  any   `json:"state,omitempty"`

	Error *NodeError `json:"error,omitempty"`

	// Selected and Reason are only meaningful for Branching nodes.
	Selected string `json:"selected,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Clone returns a deep-enough copy of n for a resume snapshot: shared
// slices/maps in Input/Output/State are intentionally not deep-copied since
// the engine treats them as opaque, caller-owned values once recorded.
func (n *NodeData) Clone() *NodeData {
	if n == nil {
		return nil
	}
	cp := *n
	if n.Deps != nil {
		cp.Deps = append([]string(nil), n.Deps...)
	}
	if n.Started != nil {
		t := *n.Started
		cp.Started = &t
	}
	if n.Finished != nil {
		t := *n.Finished
		cp.Finished = &t
	}
	if n.Error != nil {
		errCopy := *n.Error
		cp.Error = &errCopy
	}
	return &cp
}

// Snapshot is the complete observable state of a run (§3). Consumers
// receive the live pointer on every event bus emission and must treat it as
// read-only; call Clone before persisting asynchronously.
type Snapshot struct {
	Status   RunStatus             `json:"status"`
	Started  time.Time             `json:"started"`
	Finished *time.Time            `json:"finished,omitempty"`
	Data     map[string]*NodeData  `json:"data"`
}

// Clone returns a copy that is safe to retain after the live snapshot moves
// on: the run fields, the Data map, and every NodeData (via NodeData.Clone)
// are copied. Node Input/Output/State values are shared with the live
// snapshot, not deep-copied; the engine replaces those values rather than
// mutating them in place. Use Clone before persisting a snapshot obtained
// from an eventbus emission (§4.7).
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := &Snapshot{
		Status:  s.Status,
		Started: s.Started,
		Data:    make(map[string]*NodeData, len(s.Data)),
	}
	if s.Finished != nil {
		t := *s.Finished
		cp.Finished = &t
	}
	for name, nd := range s.Data {
		cp.Data[name] = nd.Clone()
	}
	return cp
}
