package snapshot

import (
	"fmt"
	"sync"
	"time"

	"github.com/flowdag/flowdag/internal/eventbus"
	"github.com/flowdag/flowdag/internal/topology"
)

// Store is the live, mutable owner of a single run's Snapshot. Every
// mutating method locks, applies the transition, and publishes the live
// snapshot reference on the bus before releasing — this is what gives
// callers the "data emission happens-before any subsequent scheduler
// decision observing that transition" guarantee from §5, since the
// scheduler only observes state after the publish that reported it.
//
// Grounded on the split between internal/inmemorytopology and
// internal/inmemorystore in specialistvlad-burstgridgo: those keep
// structure and state in two locks so read-heavy topology queries never
// contend with frequent state writes. Here the two are combined into one
// store because NodeData already carries its own deps/type (so there is no
// separate read-heavy topology to protect from write contention) — the
// mutex still exists to serialize the transitions per §5's "single worker
// for state
// updates, or a mutex around snapshot mutation".
type Store struct {
	mu   sync.Mutex
	snap *Snapshot
	bus  *eventbus.Bus
}

// New creates a Store whose snapshot holds the entries of initial as given;
// callers build them with NewPendingNodeData.
func New(bus *eventbus.Bus, initial map[string]*NodeData, started time.Time) *Store {
	data := make(map[string]*NodeData, len(initial))
	for name, nd := range initial {
		data[name] = nd
	}
	return &Store{
		bus: bus,
		snap: &Snapshot{
			Status:  RunRunning,
			Started: started,
			Data:    data,
		},
	}
}

// FromSnapshot wraps an already-built Snapshot (used by resume, where the
// snapshot's node data was produced by the resume transformer rather than
// freshly initialized).
func FromSnapshot(bus *eventbus.Bus, snap *Snapshot) *Store {
	return &Store{bus: bus, snap: snap}
}

// Snapshot returns the live snapshot reference (§4.7 "getSnapshot").
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Node returns a live NodeData pointer, or false if the node is unknown.
func (s *Store) Node(name string) (*NodeData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nd, ok := s.snap.Data[name]
	return nd, ok
}

// StatusOf returns a node's status, treating an absent entry as Pending
// per §4.2's readiness rule.
func (s *Store) StatusOf(name string) NodeStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	nd, ok := s.snap.Data[name]
	if !ok {
		return NodePending
	}
	return nd.Status
}

func (s *Store) mutate(name string, fn func(nd *NodeData)) error {
	s.mu.Lock()
	nd, ok := s.snap.Data[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("snapshot: unknown node %q", name)
	}
	fn(nd)
	s.bus.PublishData(s.snap)
	s.mu.Unlock()
	return nil
}

// SetRunning transitions a node to running, recording its materialized
// input (§4.3.1).
func (s *Store) SetRunning(name string, input []any, now time.Time) error {
	return s.mutate(name, func(nd *NodeData) {
		nd.Status = NodeRunning
		nd.Started = &now
		nd.Input = input
	})
}

// SetWorkCompleted transitions a Work node to completed with its output.
func (s *Store) SetWorkCompleted(name string, output any, now time.Time) error {
	return s.mutate(name, func(nd *NodeData) {
		nd.Status = NodeCompleted
		nd.Finished = &now
		nd.Output = output
	})
}

// SetBranchCompleted transitions a Branching node to completed, recording
// its selection (§4.3.3).
func (s *Store) SetBranchCompleted(name, selected, reason string, now time.Time) error {
	return s.mutate(name, func(nd *NodeData) {
		nd.Status = NodeCompleted
		nd.Finished = &now
		nd.Selected = selected
		nd.Reason = reason
	})
}

// SetSuspensionCompleted transitions a Suspension node to completed
// (§4.3.4). The node itself produces no output.
func (s *Store) SetSuspensionCompleted(name string, now time.Time) error {
	return s.mutate(name, func(nd *NodeData) {
		nd.Status = NodeCompleted
		nd.Finished = &now
	})
}

// SetErrored transitions a node to errored (any type, §4.3.1).
func (s *Store) SetErrored(name string, nodeErr *NodeError, now time.Time) error {
	return s.mutate(name, func(nd *NodeData) {
		nd.Status = NodeErrored
		nd.Finished = &now
		nd.Error = nodeErr
	})
}

// SetSkipped transitions a node to skipped, either as an immediate
// dependent of a branching decision (§4.3.3) or en masse at finalize (§4.5).
func (s *Store) SetSkipped(name string) error {
	return s.mutate(name, func(nd *NodeData) {
		nd.Status = NodeSkipped
	})
}

// SetSuspended transitions a node to suspended, stamping Finished per
// §4.3.4 ("every direct dependent transitions to suspended with a finished
// timestamp").
func (s *Store) SetSuspended(name string, now time.Time) error {
	return s.mutate(name, func(nd *NodeData) {
		nd.Status = NodeSuspended
		nd.Finished = &now
	})
}

// UpdateState overwrites a running node's checkpoint (§4.3.1).
func (s *Store) UpdateState(name string, state any) error {
	return s.mutate(name, func(nd *NodeData) {
		nd.State = state
	})
}

// SetInputIfAbsent caches a node's materialized input the first time it is
// computed, per §4.4's "computed lazily, once, and cached" rule. It does
// not transition status and does not publish, since it is an internal
// memoization step, not an observable transition.
func (s *Store) SetInputIfAbsent(name string, input []any) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	nd := s.snap.Data[name]
	if nd.Input != nil {
		return nd.Input
	}
	nd.Input = input
	return input
}

// Finalize sets the run's terminal status and finished timestamp exactly
// once (§4.5 step 5, invariant 6).
func (s *Store) Finalize(status RunStatus, now time.Time) *Snapshot {
	s.mu.Lock()
	s.snap.Status = status
	s.snap.Finished = &now
	live := s.snap
	s.mu.Unlock()
	return live
}

// FinalizeAndPublish finalizes the run and fires exactly one of the bus's
// error/done topics (§4.5 step 6): termErr non-nil means the errored
// terminal, publishing on the error topic; otherwise the done topic
// covers both the completed and suspended terminals.
func (s *Store) FinalizeAndPublish(status RunStatus, now time.Time, termErr error) *Snapshot {
	live := s.Finalize(status, now)
	if termErr != nil {
		s.bus.PublishError(live, termErr)
	} else {
		s.bus.PublishDone(live)
	}
	return live
}

// Bus exposes the event bus for subscription by the run handle (§4.7,
// §6's "events" surface). Only the run handle should call this; internal
// collaborators receive mutations through the Store's mutation methods.
func (s *Store) Bus() *eventbus.Bus {
	return s.bus
}

// StatusSnapshot returns a point-in-time copy of every node's status,
// taken under the store's lock. The readiness oracle reads this rather
// than live NodeData pointers so its scan is never concurrent with an
// in-flight mutate() touching the same fields.
func (s *Store) StatusSnapshot() map[string]NodeStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]NodeStatus, len(s.snap.Data))
	for name, nd := range s.snap.Data {
		out[name] = nd.Status
	}
	return out
}

// AllNames returns every node name known to the snapshot.
func (s *Store) AllNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.snap.Data))
	for name := range s.snap.Data {
		names = append(names, name)
	}
	return names
}

// NewPendingNodeData builds the initial NodeData for a node at run start.
func NewPendingNodeData(kind topology.Kind, deps []string) *NodeData {
	return &NodeData{
		Type:   kind,
		Deps:   append([]string(nil), deps...),
		Status: NodePending,
	}
}
