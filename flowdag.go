package flowdag

import (
	"github.com/flowdag/flowdag/internal/snapshot"
	"github.com/flowdag/flowdag/internal/topology"
)

// Kind distinguishes the three node variants a Spec can declare.
type Kind = topology.Kind

const (
	Work       = topology.Work
	Branching  = topology.Branching
	Suspension = topology.Suspension
)

// ActionInput is what every action callback receives.
type ActionInput = topology.ActionInput

// UpdateState overwrites a running node's checkpoint.
type UpdateState = topology.UpdateState

// WorkAction is a node callback whose return value becomes the node's output.
type WorkAction = topology.WorkAction

// SuspensionAction is an optional, side-effect-only callback for a
// Suspension node.
type SuspensionAction = topology.SuspensionAction

// BranchingAction is a synchronous selector for a Branching node.
type BranchingAction = topology.BranchingAction

// BranchResult is what a BranchingAction returns.
type BranchResult = topology.BranchResult

// Branch selects the named dependent to activate, with an optional reason.
func Branch(name string, reason ...string) BranchResult { return topology.Branch(name, reason...) }

// NoBranch activates none of the branching node's dependents.
func NoBranch(reason ...string) BranchResult { return topology.NoBranch(reason...) }

// NodeDef is a tagged variant: exactly one of Work, Branch, or Suspend is
// meaningful, selected by Kind.
type NodeDef = topology.NodeDef

// Spec is the immutable, user-supplied mapping from node name to definition.
type Spec = topology.Spec

// RunOptions configures a fresh run.
type RunOptions = topology.RunOptions

// ResumeOptions configures a resumed run.
type ResumeOptions = topology.ResumeOptions

// Snapshot is the complete observable state of a run.
type Snapshot = snapshot.Snapshot

// NodeData is the complete observable state of one node.
type NodeData = snapshot.NodeData

// NodeError is the structured record stamped on a node when it errors.
type NodeError = snapshot.NodeError

// NodeStatus is the execution status of a single node within a run.
type NodeStatus = snapshot.NodeStatus

// RunStatus is the terminal (or in-progress) status of an entire run.
type RunStatus = snapshot.RunStatus

const (
	NodePending   = snapshot.NodePending
	NodeRunning   = snapshot.NodeRunning
	NodeCompleted = snapshot.NodeCompleted
	NodeErrored   = snapshot.NodeErrored
	NodeSuspended = snapshot.NodeSuspended
	NodeSkipped   = snapshot.NodeSkipped

	RunRunning   = snapshot.RunRunning
	RunCompleted = snapshot.RunCompleted
	RunErrored   = snapshot.RunErrored
	RunSuspended = snapshot.RunSuspended
)
