package routing

import (
	"fmt"
	"sync"
	"testing"
)

// TestConcurrentIteratorsAreInternallyConsistent is property P9:
// under many concurrent readers and no writers, every iterator
// returned is a valid rotation/swap of some source sequence at some
// counter value — never a torn or duplicated read.
func TestConcurrentIteratorsAreInternallyConsistent(t *testing.T) {
	table, p, r1, r2 := threeReplicaTable(t)
	all := []ShardRouting{p, r1, r2}

	var wg sync.WaitGroup
	numReaders := 100
	errs := make(chan string, numReaders)

	wg.Add(numReaders)
	for i := 0; i < numReaders; i++ {
		go func(id int) {
			defer wg.Done()
			var it *ShardIterator
			switch id % 3 {
			case 0:
				it = table.ShardsRandomIt()
			case 1:
				it = table.PrimaryFirstActiveShardsIt()
			default:
				it = table.PreferNodeActiveShardsIt(fmt.Sprintf("node-%d", id))
			}
			got := collect(it)
			if !equalMultiset(got, all) {
				errs <- fmt.Sprintf("reader %d: got %+v, not a permutation of %+v", id, got, all)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

// TestConcurrentAttributeCacheBuildsConsistentResults exercises the
// copy-on-write attribute cache (§5, I6) under concurrent first-use
// from many goroutines: every caller must observe the same grouping,
// and the cache map itself must never be mutated in place.
func TestConcurrentAttributeCacheBuildsConsistentResults(t *testing.T) {
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}
	a := ShardRouting{ShardId: shardId, Primary: true, CurrentNodeId: "A", State: ShardStateStarted}
	b := ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "B", State: ShardStateStarted}
	table := NewBuilder(shardId, false).AddShard(a).AddShard(b).Build()

	nodes := staticNodeAttributes{
		"A": {"rack": "r1"},
		"B": {"rack": "r2"},
	}

	var wg sync.WaitGroup
	numGoroutines := 50
	results := make([]*AttributesRoutings, numGoroutines)

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			results[id] = table.attributeRoutings([]string{"rack"}, "A", nodes)
		}(i)
	}
	wg.Wait()

	for i := 1; i < numGoroutines; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d observed a different *AttributesRoutings than goroutine 0", i)
		}
	}
}
