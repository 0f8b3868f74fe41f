package routing

// This file implements every iterator selection policy from §4.2: for
// a given source sequence, the result's element multiset always
// equals the source's; only ordering differs. None of these methods
// mutate the table except for the documented counter increment on the
// "random" / no-explicit-index variants and the attribute-cache fill
// on a prefer-attributes cache miss.

// ShardsIt returns shards in insertion order.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over a fresh copy of Shards(),
//     unrotated.
//
// Thread Safety: safe for unbounded concurrent callers; does not touch
// the counter.
func (t *IndexShardRoutingTable) ShardsIt() *ShardIterator {
	return newShardIterator(t.shardId, append([]ShardRouting(nil), t.shards...))
}

// ShardsRandomIt returns shards rotated by one atomic
// fetch-and-increment of the table's counter.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over rot(Shards(), k), where
//     k is this call's fetch-and-increment value.
//
// Thread Safety: safe for unbounded concurrent callers; each call
// observes a distinct counter value via a lock-free atomic increment.
func (t *IndexShardRoutingTable) ShardsRandomIt() *ShardIterator {
	return newShardIterator(t.shardId, rotate(t.shards, t.fetchAndIncrement()))
}

// ShardsItAt returns shards rotated by the caller-supplied index,
// without touching the counter.
//
// Parameters:
//   - i: the rotation offset. Any int is accepted; negative values and
//     values >= Size() are normalized modulo Size() (see rotate).
//
// Returns:
//   - *ShardIterator: a single-pass cursor over rot(Shards(), i).
//
// Thread Safety: safe for unbounded concurrent callers; does not read
// or modify the counter.
func (t *IndexShardRoutingTable) ShardsItAt(i int) *ShardIterator {
	return newShardIterator(t.shardId, rotate(t.shards, i))
}

// ActiveShardsIt returns activeShards in insertion order.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over a fresh copy of
//     ActiveShards(), unrotated.
//
// Thread Safety: safe for unbounded concurrent callers; does not touch
// the counter.
func (t *IndexShardRoutingTable) ActiveShardsIt() *ShardIterator {
	return newShardIterator(t.shardId, append([]ShardRouting(nil), t.activeShards...))
}

// ActiveShardsRandomIt returns activeShards rotated by one atomic
// fetch-and-increment of the counter.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over rot(ActiveShards(), k),
//     where k is this call's fetch-and-increment value.
//
// Thread Safety: safe for unbounded concurrent callers; each call
// observes a distinct counter value via a lock-free atomic increment.
func (t *IndexShardRoutingTable) ActiveShardsRandomIt() *ShardIterator {
	return newShardIterator(t.shardId, rotate(t.activeShards, t.fetchAndIncrement()))
}

// ActiveShardsItAt returns activeShards rotated by i.
//
// Parameters:
//   - i: the rotation offset, normalized as in ShardsItAt.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over rot(ActiveShards(), i).
//
// Thread Safety: safe for unbounded concurrent callers; does not read
// or modify the counter.
func (t *IndexShardRoutingTable) ActiveShardsItAt(i int) *ShardIterator {
	return newShardIterator(t.shardId, rotate(t.activeShards, i))
}

// AssignedShardsIt returns assignedShards in insertion order.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over a fresh copy of
//     AssignedShards(), unrotated.
//
// Thread Safety: safe for unbounded concurrent callers; does not touch
// the counter.
func (t *IndexShardRoutingTable) AssignedShardsIt() *ShardIterator {
	return newShardIterator(t.shardId, append([]ShardRouting(nil), t.assignedShards...))
}

// AssignedShardsRandomIt returns assignedShards rotated by one atomic
// fetch-and-increment of the counter.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over
//     rot(AssignedShards(), k), where k is this call's
//     fetch-and-increment value.
//
// Thread Safety: safe for unbounded concurrent callers; each call
// observes a distinct counter value via a lock-free atomic increment.
func (t *IndexShardRoutingTable) AssignedShardsRandomIt() *ShardIterator {
	return newShardIterator(t.shardId, rotate(t.assignedShards, t.fetchAndIncrement()))
}

// AssignedShardsItAt returns assignedShards rotated by i.
//
// Parameters:
//   - i: the rotation offset, normalized as in ShardsItAt.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over rot(AssignedShards(), i).
//
// Thread Safety: safe for unbounded concurrent callers; does not read
// or modify the counter.
func (t *IndexShardRoutingTable) AssignedShardsItAt(i int) *ShardIterator {
	return newShardIterator(t.shardId, rotate(t.assignedShards, i))
}

// PrimaryShardIt returns an iterator over just the primary, or an
// empty iterator if this table currently has none.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over []ShardRouting{*primary}
//     when PrimaryShard() is non-nil, or an iterator with Remaining()
//     == 0 otherwise.
//
// Thread Safety: safe for unbounded concurrent callers; does not touch
// the counter.
func (t *IndexShardRoutingTable) PrimaryShardIt() *ShardIterator {
	if t.primary == nil {
		return newShardIterator(t.shardId, []ShardRouting{})
	}
	return newShardIterator(t.shardId, []ShardRouting{*t.primary})
}

// PrimaryFirstActiveShardsIt rotates activeShards by one atomic
// fetch-and-increment of the counter, then swaps the primary (if
// present in that rotation) into position 0.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over rot(ActiveShards(), k)
//     with the primary (if among ActiveShards()) swapped into index 0.
//     If the primary is not active, or there is no primary, the
//     rotated order is returned unchanged.
//
// Thread Safety: safe for unbounded concurrent callers; each call
// observes a distinct counter value via a lock-free atomic increment.
func (t *IndexShardRoutingTable) PrimaryFirstActiveShardsIt() *ShardIterator {
	rotated := rotate(t.activeShards, t.fetchAndIncrement())
	swapToFront(rotated, indexOfPrimary(rotated))
	return newShardIterator(t.shardId, rotated)
}

// PreferNodeShardsIt rotates shards by one atomic fetch-and-increment
// of the counter, then swaps the first entry assigned to nodeId (if
// any, in that rotation) into position 0.
//
// Parameters:
//   - nodeId: the node whose replica, if present among Shards(), should
//     be tried first.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over rot(Shards(), k) with
//     nodeId's entry (if any) swapped into index 0. Unchanged rotated
//     order if nodeId owns none of Shards().
//
// Thread Safety: safe for unbounded concurrent callers; each call
// observes a distinct counter value via a lock-free atomic increment.
func (t *IndexShardRoutingTable) PreferNodeShardsIt(nodeId string) *ShardIterator {
	rotated := rotate(t.shards, t.fetchAndIncrement())
	swapToFront(rotated, indexOfNode(rotated, nodeId))
	return newShardIterator(t.shardId, rotated)
}

// PreferNodeActiveShardsIt is PreferNodeShardsIt over activeShards.
//
// Parameters:
//   - nodeId: the node whose replica, if present among ActiveShards(),
//     should be tried first.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over rot(ActiveShards(), k)
//     with nodeId's entry (if any) swapped into index 0.
//
// Thread Safety: safe for unbounded concurrent callers; each call
// observes a distinct counter value via a lock-free atomic increment.
func (t *IndexShardRoutingTable) PreferNodeActiveShardsIt(nodeId string) *ShardIterator {
	rotated := rotate(t.activeShards, t.fetchAndIncrement())
	swapToFront(rotated, indexOfNode(rotated, nodeId))
	return newShardIterator(t.shardId, rotated)
}

// PreferNodeAssignedShardsIt is PreferNodeShardsIt over assignedShards.
//
// Parameters:
//   - nodeId: the node whose replica, if present among
//     AssignedShards(), should be tried first.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over rot(AssignedShards(), k)
//     with nodeId's entry (if any) swapped into index 0.
//
// Thread Safety: safe for unbounded concurrent callers; each call
// observes a distinct counter value via a lock-free atomic increment.
func (t *IndexShardRoutingTable) PreferNodeAssignedShardsIt(nodeId string) *ShardIterator {
	rotated := rotate(t.assignedShards, t.fetchAndIncrement())
	swapToFront(rotated, indexOfNode(rotated, nodeId))
	return newShardIterator(t.shardId, rotated)
}

// OnlyNodeActiveShardsIt retains, in original order, every entry of
// shards (deliberately not activeShards — see package docs) whose
// CurrentNodeId == nodeId.
//
// This filters shards rather than activeShards despite the name; that
// mismatch is preserved from the upstream source on purpose, not a
// bug, and is pinned down by a regression test.
//
// Parameters:
//   - nodeId: the node to filter Shards() down to.
//
// Returns:
//   - *ShardIterator: a single-pass cursor over every entry of
//     Shards() with CurrentNodeId == nodeId, in Shards() order. Never
//     nil; empty when nodeId holds no replica of this shard.
//
// Thread Safety: safe for unbounded concurrent callers; does not touch
// the counter.
func (t *IndexShardRoutingTable) OnlyNodeActiveShardsIt(nodeId string) *ShardIterator {
	var out []ShardRouting
	for _, sh := range t.shards {
		if sh.CurrentNodeId == nodeId {
			out = append(out, sh)
		}
	}
	if out == nil {
		out = []ShardRouting{}
	}
	return newShardIterator(t.shardId, out)
}

// PreferAttributesActiveShardsIt groups activeShards by attrs relative
// to localNodeId's attribute values (via nodes), computing or reusing
// a cached [AttributesRoutings], then rotates withSameAttribute and
// withoutSameAttribute independently by one atomic
// fetch-and-increment of the counter and concatenates them —
// withSameAttribute always first, the two groups never interleaved.
//
// Parameters:
//   - attrs: the attribute names to compare, e.g. []string{"zone"}. A
//     replica's node is grouped into withSameAttribute when at least
//     one name in attrs that localNodeId has a value for resolves to
//     the same value on the replica's node.
//   - localNodeId: the node on whose behalf this dispatch is made; its
//     attribute values are the comparison baseline.
//   - nodes: resolves a node id to its attribute map; a
//     clusterstate.Directory satisfies this.
//
// Returns:
//   - *ShardIterator: rot(withSameAttribute, k) followed by
//     rot(withoutSameAttribute, k), where k is this call's
//     fetch-and-increment value and both groups partition
//     ActiveShards().
//
// Performance: O(m) on a cache hit for the attrs key (the common case
// after the first call); O(m·a) on a miss, for a == len(attrs). The
// cache is keyed by attribute names only, not by localNodeId: a later
// call with the same attrs and a different localNodeId reuses the
// grouping computed for the first one.
//
// Thread Safety: safe for unbounded concurrent callers; the attribute
// cache uses an atomic pointer load on the read path and a per-table
// mutex only on a miss.
func (t *IndexShardRoutingTable) PreferAttributesActiveShardsIt(attrs []string, localNodeId string, nodes NodeAttributeSource) *ShardIterator {
	return t.preferAttributesAt(attrs, localNodeId, nodes, t.fetchAndIncrement())
}

// PreferAttributesActiveShardsItAt is PreferAttributesActiveShardsIt
// with a caller-supplied index, without touching the counter.
//
// Parameters:
//   - attrs, localNodeId, nodes: as PreferAttributesActiveShardsIt.
//   - index: the rotation offset applied independently to each
//     attribute group, normalized as in ShardsItAt.
//
// Returns:
//   - *ShardIterator: rot(withSameAttribute, index) followed by
//     rot(withoutSameAttribute, index).
//
// Thread Safety: safe for unbounded concurrent callers; does not read
// or modify the counter. Attribute-cache semantics match
// PreferAttributesActiveShardsIt.
func (t *IndexShardRoutingTable) PreferAttributesActiveShardsItAt(attrs []string, localNodeId string, nodes NodeAttributeSource, index int) *ShardIterator {
	return t.preferAttributesAt(attrs, localNodeId, nodes, index)
}

func (t *IndexShardRoutingTable) preferAttributesAt(attrs []string, localNodeId string, nodes NodeAttributeSource, index int) *ShardIterator {
	ar := t.attributeRoutings(attrs, localNodeId, nodes)
	same := rotate(ar.WithSameAttribute, index)
	without := rotate(ar.WithoutSameAttribute, index)
	combined := make([]ShardRouting, 0, len(same)+len(without))
	combined = append(combined, same...)
	combined = append(combined, without...)
	return newShardIterator(t.shardId, combined)
}

// PolicyKind tags which selection policy BuildIterator should apply.
// A tagged variant plus one dispatch function keeps the hot dispatch
// flat rather than one interface implementation per policy.
type PolicyKind uint8

const (
	PolicyShards PolicyKind = iota
	PolicyShardsRandom
	PolicyActiveShards
	PolicyActiveShardsRandom
	PolicyAssignedShards
	PolicyAssignedShardsRandom
	PolicyPrimary
	PolicyPrimaryFirstActive
	PolicyPreferNode
	PolicyPreferNodeActive
	PolicyPreferNodeAssigned
	PolicyOnlyNodeActive
	PolicyPreferAttributesActive
)

// Policy bundles a PolicyKind with the arguments the kinds that need
// them require. Unused fields for a given Kind are ignored.
//
// Thread Safety: a Policy value is an immutable argument bundle; it
// carries no mutable state of its own and is safe to share across
// concurrent BuildIterator calls.
type Policy struct {
	Kind PolicyKind

	// NodeId is the target node for PolicyPreferNode*, and the local
	// node's id for PolicyPreferAttributesActive.
	NodeId string

	// Attrs and Nodes are used only by PolicyPreferAttributesActive.
	Attrs []string
	Nodes NodeAttributeSource

	// Index, when UseIndex is set, selects the explicit-rotation
	// variant for PolicyShards, PolicyActiveShards and
	// PolicyAssignedShards (instead of their unrotated order) and for
	// PolicyPreferAttributesActive (instead of its counter-driven
	// rotation). Every other kind ignores Index and UseIndex.
	Index    int
	UseIndex bool
}

// policyKindNames maps the stable lowercase name used on the wire
// (request JSON, CLI flags) to every PolicyKind; ParsePolicyKind looks
// names up in it.
var policyKindNames = map[string]PolicyKind{
	"shards":                   PolicyShards,
	"shards_random":            PolicyShardsRandom,
	"active_shards":            PolicyActiveShards,
	"active_shards_random":     PolicyActiveShardsRandom,
	"assigned_shards":          PolicyAssignedShards,
	"assigned_shards_random":   PolicyAssignedShardsRandom,
	"primary":                  PolicyPrimary,
	"primary_first_active":     PolicyPrimaryFirstActive,
	"prefer_node":              PolicyPreferNode,
	"prefer_node_active":       PolicyPreferNodeActive,
	"prefer_node_assigned":     PolicyPreferNodeAssigned,
	"only_node_active":         PolicyOnlyNodeActive,
	"prefer_attributes_active": PolicyPreferAttributesActive,
}

// ParsePolicyKind resolves the stable lowercase name of a policy (as
// used in request JSON bodies and CLI --policy flags) to its
// PolicyKind, or reports ok=false for an unrecognized name. Both
// cmd/meridian-coordinator and cmd/meridian-node share this lookup so
// the set of recognized policy names cannot drift between the two
// binaries.
//
// Parameters:
//   - name: the stable lowercase policy name, e.g. "prefer_node_active".
//
// Returns:
//   - PolicyKind: the matching kind, valid only when ok is true.
//   - ok: false when name matches none of the 13 recognized policies.
//
// Thread Safety: safe for unbounded concurrent callers; reads a
// package-level map that is never mutated after initialization.
func ParsePolicyKind(name string) (kind PolicyKind, ok bool) {
	kind, ok = policyKindNames[name]
	return kind, ok
}

// BuildIterator dispatches p against t and returns the resulting
// iterator. It is the single flat entry point external callers should
// use when the policy is chosen dynamically (e.g. from a request's
// preference string); the per-policy methods above remain available
// for callers that already know which one they want.
//
// Parameters:
//   - t: the table to dispatch against.
//   - p: the policy to apply, including any NodeId/Attrs/Nodes/Index
//     arguments its Kind requires.
//
// Returns:
//   - *ShardIterator: the same iterator the corresponding per-policy
//     method on t would return. An unrecognized p.Kind (never produced
//     by ParsePolicyKind, but reachable if a Policy is constructed by
//     hand with an out-of-range Kind) yields an iterator with
//     Remaining() == 0 rather than panicking.
//
// Thread Safety: safe for unbounded concurrent callers; inherits the
// thread safety of whichever per-policy method it dispatches to.
func BuildIterator(t *IndexShardRoutingTable, p Policy) *ShardIterator {
	switch p.Kind {
	case PolicyShards:
		if p.UseIndex {
			return t.ShardsItAt(p.Index)
		}
		return t.ShardsIt()
	case PolicyShardsRandom:
		return t.ShardsRandomIt()
	case PolicyActiveShards:
		if p.UseIndex {
			return t.ActiveShardsItAt(p.Index)
		}
		return t.ActiveShardsIt()
	case PolicyActiveShardsRandom:
		return t.ActiveShardsRandomIt()
	case PolicyAssignedShards:
		if p.UseIndex {
			return t.AssignedShardsItAt(p.Index)
		}
		return t.AssignedShardsIt()
	case PolicyAssignedShardsRandom:
		return t.AssignedShardsRandomIt()
	case PolicyPrimary:
		return t.PrimaryShardIt()
	case PolicyPrimaryFirstActive:
		return t.PrimaryFirstActiveShardsIt()
	case PolicyPreferNode:
		return t.PreferNodeShardsIt(p.NodeId)
	case PolicyPreferNodeActive:
		return t.PreferNodeActiveShardsIt(p.NodeId)
	case PolicyPreferNodeAssigned:
		return t.PreferNodeAssignedShardsIt(p.NodeId)
	case PolicyOnlyNodeActive:
		return t.OnlyNodeActiveShardsIt(p.NodeId)
	case PolicyPreferAttributesActive:
		if p.UseIndex {
			return t.PreferAttributesActiveShardsItAt(p.Attrs, p.NodeId, p.Nodes, p.Index)
		}
		return t.PreferAttributesActiveShardsIt(p.Attrs, p.NodeId, p.Nodes)
	default:
		return newShardIterator(t.shardId, []ShardRouting{})
	}
}
