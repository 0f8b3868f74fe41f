package routing

import (
	"sort"
	"testing"
)

func threeReplicaTable(t *testing.T) (*IndexShardRoutingTable, ShardRouting, ShardRouting, ShardRouting) {
	t.Helper()
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}
	p := ShardRouting{ShardId: shardId, Primary: true, CurrentNodeId: "A", State: ShardStateStarted, Version: 1}
	r1 := ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "B", State: ShardStateStarted, Version: 1}
	r2 := ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "C", State: ShardStateStarted, Version: 1}

	table := NewBuilder(shardId, false).AddShard(p).AddShard(r1).AddShard(r2).Build()
	return table, p, r1, r2
}

// TestPrimaryPresenceInvariant is property P1: primary() is present
// iff exactly one shard has primary=true.
func TestPrimaryPresenceInvariant(t *testing.T) {
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}

	noPrimary := NewBuilder(shardId, false).
		AddShard(ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "A", State: ShardStateStarted}).
		Build()
	if noPrimary.PrimaryShard() != nil {
		t.Fatal("PrimaryShard() present with zero primary entries")
	}

	onePrimary := NewBuilder(shardId, false).
		AddShard(ShardRouting{ShardId: shardId, Primary: true, CurrentNodeId: "A", State: ShardStateStarted}).
		Build()
	if onePrimary.PrimaryShard() == nil {
		t.Fatal("PrimaryShard() absent with exactly one primary entry")
	}
}

// TestNormalizeVersionsIdentityOnSmallOrUniform is property P6 plus
// the identity fast path documented on NormalizeVersions.
func TestNormalizeVersionsIdentityOnSmallOrUniform(t *testing.T) {
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}

	single := NewBuilder(shardId, false).
		AddShard(ShardRouting{ShardId: shardId, Primary: true, CurrentNodeId: "A", State: ShardStateStarted, Version: 7}).
		Build()
	if got := single.NormalizeVersions(); got != single {
		t.Fatal("NormalizeVersions() on a single-shard table must return the same instance")
	}

	uniform := NewBuilder(shardId, false).
		AddShard(ShardRouting{ShardId: shardId, Primary: true, CurrentNodeId: "A", State: ShardStateStarted, Version: 3}).
		AddShard(ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "B", State: ShardStateStarted, Version: 3}).
		Build()
	if got := uniform.NormalizeVersions(); got != uniform {
		t.Fatal("NormalizeVersions() with all-equal versions must return the same instance")
	}
}

// TestNormalizeVersionsBumpsToMax is property P8: after normalizing, every
// entry's version is at least the pre-normalize maximum.
func TestNormalizeVersionsBumpsToMax(t *testing.T) {
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}
	table := NewBuilder(shardId, false).
		AddShard(ShardRouting{ShardId: shardId, Primary: true, CurrentNodeId: "A", State: ShardStateStarted, Version: 1}).
		AddShard(ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "B", State: ShardStateStarted, Version: 9}).
		Build()

	normalized := table.NormalizeVersions()
	if normalized == table {
		t.Fatal("NormalizeVersions() must allocate a fresh table when versions differ")
	}
	for _, sh := range normalized.Shards() {
		if sh.Version != 9 {
			t.Fatalf("entry %+v has version %d, want 9", sh, sh.Version)
		}
	}

	// Idempotent (P6): normalizing twice is a no-op the second time.
	twice := normalized.NormalizeVersions()
	if twice != normalized {
		t.Fatal("NormalizeVersions() is not idempotent")
	}
}

// TestDerivedSequencesPreserveOrder is invariant I1: replicas,
// activeShards and assignedShards are subsets of shards with order
// preserved.
func TestDerivedSequencesPreserveOrder(t *testing.T) {
	table, p, r1, r2 := threeReplicaTable(t)

	wantShards := []ShardRouting{p, r1, r2}
	if got := table.Shards(); !equalSeq(got, wantShards) {
		t.Fatalf("Shards() = %+v, want %+v", got, wantShards)
	}

	wantReplicas := []ShardRouting{r1, r2}
	if got := table.ReplicaShards(); !equalSeq(got, wantReplicas) {
		t.Fatalf("ReplicaShards() = %+v, want %+v", got, wantReplicas)
	}

	if got := table.ActiveShards(); !equalSeq(got, wantShards) {
		t.Fatalf("ActiveShards() = %+v, want %+v", got, wantShards)
	}
	if got := table.AssignedShards(); !equalSeq(got, wantShards) {
		t.Fatalf("AssignedShards() = %+v, want %+v", got, wantShards)
	}
}

func TestCountAndShardsWithState(t *testing.T) {
	table, _, _, _ := threeReplicaTable(t)

	if got := table.CountWithState(ShardStateStarted); got != 3 {
		t.Fatalf("CountWithState(STARTED) = %d, want 3", got)
	}
	if got := table.CountWithState(ShardStateRelocating); got != 0 {
		t.Fatalf("CountWithState(RELOCATING) = %d, want 0", got)
	}

	got := table.ShardsWithState(ShardStateStarted, ShardStateRelocating)
	if len(got) != 3 {
		t.Fatalf("ShardsWithState(STARTED, RELOCATING) returned %d entries, want 3", len(got))
	}
}

func equalSeq(a, b []ShardRouting) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// equalMultiset reports whether a and b contain the same elements,
// ignoring order — used to check property P2.
func equalMultiset(a, b []ShardRouting) bool {
	if len(a) != len(b) {
		return false
	}
	sorted := func(in []ShardRouting) []ShardRouting {
		out := append([]ShardRouting(nil), in...)
		sort.Slice(out, func(i, j int) bool {
			return out[i].CurrentNodeId < out[j].CurrentNodeId
		})
		return out
	}
	sa, sb := sorted(a), sorted(b)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
