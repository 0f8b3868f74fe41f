// Package routing implements the shard routing table: the in-memory
// structure that records where every replica of every shard lives
// across the cluster, and the family of iterators that turn a
// preference (round-robin, prefer a node, prefer an attribute-sharing
// node, primary-first, only-on-node) into an ordered list of shard
// copies a caller should try.
//
// # Overview
//
// Every search and indexing request a node handles needs to answer one
// question before it can do any work: which copy of which shard should
// this request go to first, and in what order should the remaining
// copies be tried if that one is unavailable? This package answers
// that question without ever touching the network or blocking: it is
// a pure, in-memory data structure plus a family of deterministic
// (but randomizable) functions over it.
//
// It deliberately does not decide *how* shards get allocated to nodes
// — that decision is authored by a cluster-state publisher outside
// this package, driven by allocation and rebalancing logic this slice
// of the system does not implement. This package only describes the
// read path: given an already-decided placement, produce a dispatch
// order.
//
// # Architecture
//
//	┌───────────────────────────────────────────┐
//	│          IndexShardRoutingTable            │
//	├───────────────────────────────────────────┤
//	│                                           │
//	│  ┌────────────────────────────────────┐  │
//	│  │  shards []ShardRouting              │  │
//	│  │  - insertion order, frozen          │  │
//	│  └────────────────────────────────────┘  │
//	│                                           │
//	│  ┌────────────────────────────────────┐  │
//	│  │  derived views (precomputed once)   │  │
//	│  │  - primary *ShardRouting            │  │
//	│  │  - replicas, activeShards           │  │
//	│  │  - assignedShards                   │  │
//	│  └────────────────────────────────────┘  │
//	│                                           │
//	│  ┌────────────────────────────────────┐  │
//	│  │  counter atomic.Int64               │  │
//	│  │  - lock-free fetch-and-increment    │  │
//	│  │  - drives every "random" iterator   │  │
//	│  └────────────────────────────────────┘  │
//	│                                           │
//	│  ┌────────────────────────────────────┐  │
//	│  │  attrCache atomic.Pointer[map]      │  │
//	│  │  - copy-on-write, mutex-guarded     │  │
//	│  │  - never mutated in place (I6)      │  │
//	│  └────────────────────────────────────┘  │
//	│                                           │
//	└───────────────────────────────────────────┘
//	                    │
//	                    ▼ BuildIterator(table, policy)
//	              ┌────────────┐
//	              │ ShardIterator │  single-pass cursor, holds its own
//	              └────────────┘  materialized ordering
//
// # Core Components
//
// ShardId / ShardRouting: the value types identifying a shard and one
// of its replicas.
//   - ShardId is a structural (index name, shard number) pair.
//   - ShardRouting carries the replica's assignment, role (primary or
//     not), state machine position, and epoch (Version).
//
// IndexShardRoutingTable: the per-shard, frozen-after-build grouping
// of every known replica.
//   - Computes primary/replicas/activeShards/assignedShards once, in a
//     single pass over the Builder's accumulated entries.
//   - Exposes a lock-free round-robin counter and a copy-on-write
//     attribute-grouping cache as its only two mutable fields.
//
// ShardIterator: a single-pass cursor over an already-materialized,
// already-ordered slice.
//   - Holds its own copy of the ordering, not a reference to the
//     table, so it survives the table being discarded.
//
// Policy family (policy.go): pure functions from
// (table, preference) to ShardIterator.
//   - Every policy's output is a permutation of some source sequence
//     (shards, activeShards, or assignedShards) — never a superset or
//     subset.
//   - PolicyKind plus BuildIterator gives one flat dispatch point for
//     callers that select a policy dynamically (e.g. from a request's
//     preference string) instead of one interface implementation per
//     policy.
//
// Builder (builder.go): the only way to construct a table.
//   - Accumulates ShardRouting entries (addShard/removeShard), enforces
//     the no-duplicate-assignment invariant (I3) by silently dropping
//     a duplicate rather than failing, then freezes the result.
//
// Codec (codec.go): the compact wire form used for cluster-state
// gossip.
//   - "Fat" frames carry the index name; "thin" frames omit it and
//     rely on the reader already knowing which index the frame
//     belongs to. Both are canonical: the same logical table always
//     produces the same bytes.
//
// # Iterator Selection Policies
//
// Given rot(seq, k) = the sequence rotated so seq[k] comes first:
//
//	Policy                          Source          Ordering
//	shardsIt                        shards          identity
//	shardsRandomIt                  shards          rot(shards, counter++)
//	activeShardsIt / …RandomIt      activeShards    as above
//	assignedShardsIt / …RandomIt    assignedShards  as above
//	primaryShardIt                  [primary] or [] identity
//	primaryFirstActiveShardsIt      activeShards    rot(…, counter++), primary swapped to front
//	preferNodeShardsIt              shards          rot(…, counter++), node owner swapped to front
//	onlyNodeActiveShardsIt          shards (not activeShards — preserved quirk, see below)
//	preferAttributesActiveShardsIt  activeShards    grouped by shared attribute, same-group always first
//
// # Concurrency and Synchronization
//
// The routing core carries no scheduler, no blocking I/O, and no
// internal goroutines: every operation is synchronous and bounded by
// |shards|.
//
// Lock Granularity:
//   - No lock at all for the frozen fields (shards, primary, replicas,
//     activeShards, assignedShards) — they never change after Build.
//   - A single atomic.Int64 for the round-robin counter; readers never
//     block on it.
//   - A single per-table mutex guards only the attribute-cache write
//     path; reads take one atomic pointer load and no lock.
//
// Consistency Guarantees:
//   - Every iterator returned is internally consistent: its ordering
//     is a valid rotation (and, for prefer-node/primary-first
//     policies, a single swap) of its source sequence at whatever
//     counter value the call observed; for prefer-attributes it is the
//     two attribute groups, each rotated by that value, concatenated.
//   - There is no ordering guarantee *across* calls: concurrent
//     callers may see different counter values, and nothing prevents
//     interleaving.
//
// # Preserved Quirk
//
// OnlyNodeActiveShardsIt filters the full shards sequence, not
// activeShards, despite its name. This mismatch exists in the system
// this package's design was drawn from and is preserved here
// deliberately (see policy.go and TestOnlyNodeActiveShardsItFiltersAllShards)
// rather than "fixed," since downstream callers may already depend on
// the as-filtered-over-shards behavior.
//
// # Performance Characteristics
//
// Operation complexities (n = |shards| for the table, m = source
// sequence length for a given policy):
//   - Build: O(n) — one pass to compute every derived view.
//   - Size / ShardId / PrimaryShard / Shards / ReplicaShards /
//     ActiveShards / AssignedShards: O(1), precomputed.
//   - CountWithState: O(n).
//   - ShardsWithState: O(n·k) for k requested states.
//   - Any rotation-based iterator: O(m) to materialize the rotated
//     slice.
//   - PreferAttributesActiveShardsIt: O(m) on a cache hit (the common
//     case after the first call for a given attribute tuple); O(m·a)
//     on a miss, for a attribute names.
//
// # See Also
//
// Related packages:
//   - internal/clusterstate: resolves a node id to its attribute map,
//     the producer-side collaborator preferAttributesActiveShardsIt
//     needs.
//   - internal/routetable: the coordinator-facing registry that holds
//     one built IndexShardRoutingTable per shard and plays the role of
//     "the factory that returns iterators" for a running node.
package routing
