package routing

import (
	"sync"
	"sync/atomic"
)

// IndexShardRoutingTable groups every known replica of one
// (index, shardNumber) pair, providing the precomputed views and
// dispatch primitives every iterator selection policy in this package
// builds on.
//
// It is produced once by a [Builder] and is observationally immutable
// thereafter: shards, primary, replicas, activeShards and
// assignedShards never change after [Builder.Build] returns. The only
// fields that mutate post-construction are counter (a lock-free
// round-robin cursor) and the attribute-group cache, both documented
// on their own fields below.
//
// Thread Safety:
// Every exported method is safe for unbounded concurrent callers
// without external synchronization. Reads of the frozen fields touch
// no lock at all; the counter uses a lock-free atomic
// fetch-and-increment; the attribute cache uses a single atomic
// pointer load on the read path and a per-table mutex only on a cache
// miss.
type IndexShardRoutingTable struct {
	shardId ShardId

	// shards is the full replica set in Builder insertion order. The
	// three slices below are subsequences of shards with that order
	// preserved (invariant I1).
	shards         []ShardRouting
	primary        *ShardRouting
	replicas       []ShardRouting
	activeShards   []ShardRouting
	assignedShards []ShardRouting

	// counter drives the randomized-start iterators. Seeded uniformly
	// at build time; every RandomIt call does one lock-free
	// fetch-and-increment.
	counter atomic.Int64

	// attrCache is a copy-on-write pointer to an immutable map. Reads
	// take a single atomic load and no lock (I6, §5). Writes take
	// attrMu, re-check, and publish a freshly composed map.
	attrCache atomic.Pointer[attributeCacheMap]
	attrMu    sync.Mutex

	allocatedPostApi bool
}

// attributeCacheMap is never mutated in place once published; a write
// always clones it plus the new entry and swaps the pointer.
type attributeCacheMap map[AttributesKey]*AttributesRoutings

// ShardId returns the identity of the shard this table groups.
//
// Returns:
//   - ShardId: the (index name, shard number) pair this table was
//     built for. Never changes after construction.
//
// Thread Safety: safe for unbounded concurrent callers; reads a frozen
// field with no lock.
func (t *IndexShardRoutingTable) ShardId() ShardId { return t.shardId }

// Size returns the number of known replicas of this shard, active or
// not.
//
// Returns:
//   - int: len(t.Shards()). 0 for an empty (not-yet-allocated) group.
//
// Thread Safety: safe for unbounded concurrent callers; reads a frozen
// field with no lock.
func (t *IndexShardRoutingTable) Size() int { return len(t.shards) }

// Shards returns every known replica of this shard, in the order
// [Builder.AddShard] accumulated them (insertion order, not sorted by
// any field).
//
// Returns:
//   - []ShardRouting: the full replica set. The caller must treat this
//     as read-only: the slice is the table's own backing array, not a
//     copy, and mutating it would violate the table's observational
//     immutability for every other reader sharing it.
//
// Thread Safety: safe for unbounded concurrent callers; reads a frozen
// field with no lock.
func (t *IndexShardRoutingTable) Shards() []ShardRouting { return t.shards }

// PrimaryShard returns the single primary replica of this shard group.
//
// Returns:
//   - *ShardRouting: the primary, or nil unless exactly one entry in
//     Shards() has Primary==true (invariant I2) — e.g. nil for an empty
//     table, or a snapshot taken mid-failover before a replica has been
//     promoted to primary.
//
// Thread Safety: safe for unbounded concurrent callers; reads a frozen
// field with no lock.
func (t *IndexShardRoutingTable) PrimaryShard() *ShardRouting { return t.primary }

// ReplicaShards returns every non-primary replica of this shard group.
//
// Returns:
//   - []ShardRouting: the subsequence of Shards() with Primary==false,
//     in Shards() order (invariant I1).
//
// Thread Safety: safe for unbounded concurrent callers; reads a frozen
// field with no lock.
func (t *IndexShardRoutingTable) ReplicaShards() []ShardRouting { return t.replicas }

// setCounterForTest pins the round-robin counter to an exact value so
// tests can assert a deterministic rotation sequence instead of a
// random starting point. Unexported: production callers never need a
// specific counter value, only the liveness guarantee §5 describes.
func (t *IndexShardRoutingTable) setCounterForTest(v int64) { t.counter.Store(v) }

// ActiveShards returns every replica currently admitting reads.
//
// Returns:
//   - []ShardRouting: the subsequence of Shards() whose State is
//     STARTED or RELOCATING, in Shards() order (invariant I1).
//
// Thread Safety: safe for unbounded concurrent callers; reads a frozen
// field with no lock.
func (t *IndexShardRoutingTable) ActiveShards() []ShardRouting { return t.activeShards }

// AssignedShards returns every replica that currently has a node
// assigned to it.
//
// Returns:
//   - []ShardRouting: the subsequence of Shards() with a non-empty
//     CurrentNodeId, in Shards() order (invariant I1).
//
// Thread Safety: safe for unbounded concurrent callers; reads a frozen
// field with no lock.
func (t *IndexShardRoutingTable) AssignedShards() []ShardRouting { return t.assignedShards }

// AllocatedPostApi reports whether any primary of this shard group has
// ever become active.
//
// Returns:
//   - bool: true once any built table in this shardId's lineage has
//     had an active primary. Sticky (invariant I4): once true, every
//     later table for the same shardId also reports true — [Builder]
//     enforces this by forcing the flag true whenever the accumulated
//     entries include an active primary at Build time.
//
// Thread Safety: safe for unbounded concurrent callers; reads a frozen
// field with no lock.
func (t *IndexShardRoutingTable) AllocatedPostApi() bool { return t.allocatedPostApi }

// CountWithState returns the number of replicas currently in state s.
//
// Parameters:
//   - s: the ShardRoutingState to count.
//
// Returns:
//   - int: the number of entries in Shards() whose State == s.
//
// Performance: O(n) for n == Size(), a linear scan with no allocation.
//
// Thread Safety: safe for unbounded concurrent callers; reads a frozen
// field with no lock.
func (t *IndexShardRoutingTable) CountWithState(s ShardRoutingState) int {
	n := 0
	for _, sh := range t.shards {
		if sh.State == s {
			n++
		}
	}
	return n
}

// ShardsWithState returns every replica whose state matches any of
// states, in Shards() order.
//
// Parameters:
//   - states: one or more ShardRoutingState values to match against.
//     An entry is included if its State equals any of them.
//
// Returns:
//   - []ShardRouting: the matching entries, in Shards() order. Never
//     nil, even when no entry matches.
//
// Performance: O(n·k) for n == Size() and k == len(states).
//
// Thread Safety: safe for unbounded concurrent callers; reads a frozen
// field with no lock.
func (t *IndexShardRoutingTable) ShardsWithState(states ...ShardRoutingState) []ShardRouting {
	out := make([]ShardRouting, 0, len(t.shards))
	for _, sh := range t.shards {
		for _, s := range states {
			if sh.State == s {
				out = append(out, sh)
				break
			}
		}
	}
	return out
}

// buildFrom assembles the four derived views (primary, replicas,
// activeShards, assignedShards) from shards in one pass, preserving
// order, and seeds counter with a uniform random start in [0, n).
// Shared by Builder.Build and normalizeVersions.
func buildFrom(shardId ShardId, shards []ShardRouting, allocatedPostApi bool) *IndexShardRoutingTable {
	t := &IndexShardRoutingTable{
		shardId: shardId,
		shards:  shards,
	}

	t.replicas = make([]ShardRouting, 0, len(shards))
	t.activeShards = make([]ShardRouting, 0, len(shards))
	t.assignedShards = make([]ShardRouting, 0, len(shards))

	primaries := 0
	for i := range shards {
		sh := shards[i]
		if sh.Primary {
			primaries++
			p := sh
			t.primary = &p
			if sh.Active() {
				allocatedPostApi = true
			}
		} else {
			t.replicas = append(t.replicas, sh)
		}
		if sh.Active() {
			t.activeShards = append(t.activeShards, sh)
		}
		if sh.AssignedToNode() {
			t.assignedShards = append(t.assignedShards, sh)
		}
	}
	if primaries != 1 {
		t.primary = nil
	}

	t.allocatedPostApi = allocatedPostApi

	t.counter.Store(seedCounterStart(len(shards)))

	return t
}

// NormalizeVersions returns a table exposing one consistent epoch to
// readers after partial updates have been merged into a shard group.
//
// Parameters: none; operates on the receiver's current Shards().
//
// Returns:
//   - *IndexShardRoutingTable: a table logically identical to t except
//     that every replica's Version is raised to
//     max(v.Version for v in t.Shards()). If t has at most one shard,
//     or every version already equals the maximum, t itself is
//     returned unchanged (identity) — callers may rely on pointer
//     equality to detect the no-op case cheaply (property P6:
//     normalizing an already-normalized table is idempotent and
//     returns the same pointer).
//
// Thread Safety: safe for unbounded concurrent callers. Does not
// mutate t; when normalization is needed, it builds and returns a new
// table with its own freshly seeded counter and empty attribute cache.
func (t *IndexShardRoutingTable) NormalizeVersions() *IndexShardRoutingTable {
	if len(t.shards) <= 1 {
		return t
	}

	var maxVersion uint64
	for _, sh := range t.shards {
		if sh.Version > maxVersion {
			maxVersion = sh.Version
		}
	}

	changed := false
	for _, sh := range t.shards {
		if sh.Version != maxVersion {
			changed = true
			break
		}
	}
	if !changed {
		return t
	}

	bumped := make([]ShardRouting, len(t.shards))
	for i, sh := range t.shards {
		if sh.Version == maxVersion {
			bumped[i] = sh
		} else {
			sh.Version = maxVersion
			bumped[i] = sh
		}
	}

	return buildFrom(t.shardId, bumped, t.allocatedPostApi)
}
