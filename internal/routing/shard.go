package routing

import "fmt"

// ShardId identifies one shard of one index. It is a plain value type:
// two ShardIds are equal iff their fields are equal, which makes it
// usable directly as a map key.
type ShardId struct {
	IndexName   string
	ShardNumber int
}

// String renders the ShardId the way log lines and error messages in
// this package render it: "index][shardNumber", matching the
// bracketed form used across the wider search-cluster codebase this
// slice belongs to.
func (id ShardId) String() string {
	return fmt.Sprintf("%s][%d", id.IndexName, id.ShardNumber)
}

// ShardRoutingState is the operational state of one shard replica.
// This package only reports state; it never authors a transition.
type ShardRoutingState uint8

const (
	// ShardStateUnassigned is the initial state: the replica has no
	// currentNodeId yet.
	ShardStateUnassigned ShardRoutingState = iota
	// ShardStateInitializing means the replica is being recovered or
	// built on currentNodeId but is not yet serving.
	ShardStateInitializing
	// ShardStateStarted means the replica is live on currentNodeId and
	// serving reads/writes. Active.
	ShardStateStarted
	// ShardStateRelocating means the replica is live on currentNodeId
	// and actively moving to relocatingNodeId. Active.
	ShardStateRelocating
)

// String returns the canonical uppercase name of the state (e.g.
// "STARTED"), used in log lines and CLI output.
func (s ShardRoutingState) String() string {
	switch s {
	case ShardStateUnassigned:
		return "UNASSIGNED"
	case ShardStateInitializing:
		return "INITIALIZING"
	case ShardStateStarted:
		return "STARTED"
	case ShardStateRelocating:
		return "RELOCATING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// active reports whether the state admits reads, i.e. STARTED or
// RELOCATING.
func (s ShardRoutingState) active() bool {
	return s == ShardStateStarted || s == ShardStateRelocating
}

// ShardRouting describes one replica of one shard: its identity, its
// primary/replica role, its assignment, and its version.
//
// ShardRouting is a plain immutable value once constructed; callers
// build fresh instances rather than mutating fields of a shared one.
type ShardRouting struct {
	ShardId          ShardId
	CurrentNodeId    string // "" iff Unassigned()
	RelocatingNodeId string // "" iff State != ShardStateRelocating
	AllocationId     string // opaque, "" iff absent
	Version          uint64
	State            ShardRoutingState
	Primary          bool
}

// Active reports whether this replica's state is STARTED or
// RELOCATING — the states from which it can serve a read.
func (r ShardRouting) Active() bool {
	return r.State.active()
}

// AssignedToNode reports whether this replica currently has a node
// assigned to it (i.e. is not Unassigned()).
func (r ShardRouting) AssignedToNode() bool {
	return r.CurrentNodeId != ""
}

// Unassigned reports whether this replica has never been allocated a
// node, equivalently State == ShardStateUnassigned.
func (r ShardRouting) Unassigned() bool {
	return r.State == ShardStateUnassigned
}

// sameAssignment reports whether two routings are assigned to the
// same node. Used by the Builder to enforce invariant I3 (no two
// assigned replicas of the same shard group share a node).
func sameAssignment(a, b ShardRouting) bool {
	return a.AssignedToNode() && b.AssignedToNode() && a.CurrentNodeId == b.CurrentNodeId
}
