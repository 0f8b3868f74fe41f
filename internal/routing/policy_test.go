package routing

import "testing"

// TestRoundRobinSuccessiveRotations covers scenario S3: three
// successive ShardsRandomIt calls from counter=0 yield the three
// cyclic rotations of [P,R1,R2] in order.
func TestRoundRobinSuccessiveRotations(t *testing.T) {
	table, p, r1, r2 := threeReplicaTable(t)
	table.setCounterForTest(0)

	want := [][]ShardRouting{
		{p, r1, r2},
		{r1, r2, p},
		{r2, p, r1},
	}

	for i, w := range want {
		got := collect(table.ShardsRandomIt())
		if !equalSeq(got, w) {
			t.Fatalf("call %d: got %+v, want %+v", i, got, w)
		}
	}
}

// TestPreferNodeActiveSwapsOwnerToFront covers scenario S4.
func TestPreferNodeActiveSwapsOwnerToFront(t *testing.T) {
	table, p, r1, r2 := threeReplicaTable(t)
	table.setCounterForTest(0)

	got := collect(table.PreferNodeActiveShardsIt("C"))
	want := []ShardRouting{r2, r1, p}
	if !equalSeq(got, want) {
		t.Fatalf("PreferNodeActiveShardsIt(\"C\") = %+v, want %+v", got, want)
	}
}

// TestPreferNodeShardsItFirstElement is property P3.
func TestPreferNodeShardsItFirstElement(t *testing.T) {
	table, _, _, r2 := threeReplicaTable(t)

	got := collect(table.PreferNodeShardsIt("C"))
	if len(got) == 0 || got[0] != r2 {
		t.Fatalf("first element = %+v, want the shard owned by node C (%+v)", got, r2)
	}
}

// TestPreferNodeShardsItNoMatchIsJustRotation checks the no-target
// case from scenario S2: with no owner of the requested node, the
// result is simply the rotation, unchanged.
func TestPreferNodeShardsItNoMatchIsJustRotation(t *testing.T) {
	table, p, r1, r2 := threeReplicaTable(t)
	table.setCounterForTest(0)

	got := collect(table.PreferNodeShardsIt("nonexistent-node"))
	want := []ShardRouting{p, r1, r2}
	if !equalSeq(got, want) {
		t.Fatalf("PreferNodeShardsIt(missing) = %+v, want plain rotation %+v", got, want)
	}
}

// TestPrimaryFirstActiveShardsItYieldsPrimaryFirst is property P4.
func TestPrimaryFirstActiveShardsItYieldsPrimaryFirst(t *testing.T) {
	table, p, _, _ := threeReplicaTable(t)

	for i := 0; i < 5; i++ {
		got := collect(table.PrimaryFirstActiveShardsIt())
		if len(got) == 0 || got[0] != p {
			t.Fatalf("iteration %d: first element = %+v, want primary %+v", i, got, p)
		}
	}
}

// TestPolicyMultisetPreserved is property P2, spot-checked across the
// policy family.
func TestPolicyMultisetPreserved(t *testing.T) {
	table, p, r1, r2 := threeReplicaTable(t)
	all := []ShardRouting{p, r1, r2}

	checks := []*ShardIterator{
		table.ShardsIt(),
		table.ShardsRandomIt(),
		table.ActiveShardsIt(),
		table.ActiveShardsRandomIt(),
		table.AssignedShardsIt(),
		table.PrimaryFirstActiveShardsIt(),
		table.PreferNodeShardsIt("B"),
		table.PreferNodeActiveShardsIt("C"),
	}

	for i, it := range checks {
		got := collect(it)
		if !equalMultiset(got, all) {
			t.Fatalf("policy %d: multiset = %+v, want permutation of %+v", i, got, all)
		}
	}
}

// TestOnlyNodeActiveShardsItFiltersAllShards pins down the
// deliberately-preserved quirk noted in spec.md §9: the method name
// says "Active" but it filters over the full shards sequence, not
// activeShards. An unassigned or non-active replica on the target
// node must still appear.
func TestOnlyNodeActiveShardsItFiltersAllShards(t *testing.T) {
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}
	initializing := ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "D", State: ShardStateInitializing}
	active := ShardRouting{ShardId: shardId, Primary: true, CurrentNodeId: "A", State: ShardStateStarted}

	table := NewBuilder(shardId, false).AddShard(active).AddShard(initializing).Build()

	got := collect(table.OnlyNodeActiveShardsIt("D"))
	want := []ShardRouting{initializing}
	if !equalSeq(got, want) {
		t.Fatalf("OnlyNodeActiveShardsIt(\"D\") = %+v, want %+v (a non-active replica on D must still be returned)", got, want)
	}
}

// TestOnlyNodeActiveShardsItReturnsOnlyNodeEntry checks that the
// filter returns exactly the entry assigned to the requested node and
// none of the others.
func TestOnlyNodeActiveShardsItReturnsOnlyNodeEntry(t *testing.T) {
	table, p, _, r2 := threeReplicaTable(t)
	_ = p

	got := collect(table.OnlyNodeActiveShardsIt("C"))
	want := []ShardRouting{r2}
	if !equalSeq(got, want) {
		t.Fatalf("OnlyNodeActiveShardsIt(\"C\") = %+v, want %+v", got, want)
	}
}

// TestEmptySourceYieldsEmptyIterator checks the edge case noted
// throughout §4.2: empty source sequences yield empty iterators, not
// errors.
func TestEmptySourceYieldsEmptyIterator(t *testing.T) {
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}
	table := NewBuilder(shardId, false).Build()

	for _, it := range []*ShardIterator{
		table.ShardsIt(),
		table.ActiveShardsIt(),
		table.AssignedShardsIt(),
		table.PrimaryShardIt(),
		table.PreferNodeShardsIt("A"),
		table.OnlyNodeActiveShardsIt("A"),
	} {
		if _, ok := it.Next(); ok {
			t.Fatal("expected an empty iterator over an empty table")
		}
	}
}

// TestBuildIteratorDispatch spot-checks the tagged-policy dispatch
// function against its direct-method equivalents.
func TestBuildIteratorDispatch(t *testing.T) {
	table, p, _, r2 := threeReplicaTable(t)

	got := collect(BuildIterator(table, Policy{Kind: PolicyPrimary}))
	if len(got) != 1 || got[0] != p {
		t.Fatalf("BuildIterator(PolicyPrimary) = %+v, want [%+v]", got, p)
	}

	got = collect(BuildIterator(table, Policy{Kind: PolicyPreferNode, NodeId: "C"}))
	if len(got) == 0 || got[0] != r2 {
		t.Fatalf("BuildIterator(PolicyPreferNode) first = %+v, want %+v", got, r2)
	}

	table.setCounterForTest(0)
	got = collect(BuildIterator(table, Policy{Kind: PolicyShards, UseIndex: true, Index: 1}))
	want := table.ShardsItAt(1)
	if wantSeq := collect(want); !equalSeq(got, wantSeq) {
		t.Fatalf("BuildIterator(PolicyShards, index=1) = %+v, want %+v", got, wantSeq)
	}
}

func collect(it *ShardIterator) []ShardRouting {
	var out []ShardRouting
	for {
		sh, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, sh)
	}
	return out
}
