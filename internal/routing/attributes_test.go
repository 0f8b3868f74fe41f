package routing

import "testing"

// staticNodeAttributes is a fixed-map NodeAttributeSource for tests.
type staticNodeAttributes map[string]map[string]string

func (s staticNodeAttributes) Attributes(nodeId string) (map[string]string, bool) {
	v, ok := s[nodeId]
	return v, ok
}

// TestPreferAttributesGrouping covers scenario S5.
func TestPreferAttributesGrouping(t *testing.T) {
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}
	a := ShardRouting{ShardId: shardId, Primary: true, CurrentNodeId: "A", State: ShardStateStarted}
	b := ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "B", State: ShardStateStarted}
	c := ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "C", State: ShardStateStarted}

	table := NewBuilder(shardId, false).AddShard(a).AddShard(b).AddShard(c).Build()

	nodes := staticNodeAttributes{
		"A": {"rack": "r1"},
		"B": {"rack": "r1"},
		"C": {"rack": "r2"},
	}

	cases := []struct {
		index int
		want  []ShardRouting
	}{
		{0, []ShardRouting{a, b, c}},
		{1, []ShardRouting{b, a, c}},
		{2, []ShardRouting{a, b, c}},
	}

	for _, tc := range cases {
		got := collect(table.PreferAttributesActiveShardsItAt([]string{"rack"}, "A", nodes, tc.index))
		if !equalSeq(got, tc.want) {
			t.Fatalf("index=%d: got %+v, want %+v", tc.index, got, tc.want)
		}
	}
}

// TestPreferAttributesCacheIsReused confirms the cache is actually
// consulted on the second call: a nodes source that counts its
// lookups must see none during the second call, and the same
// *AttributesRoutings must come back, proving the grouping wasn't
// recomputed. It also checks that node C, whose rack differs from the
// local node's, is not in withSameAttribute.
func TestPreferAttributesCacheIsReused(t *testing.T) {
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}
	a := ShardRouting{ShardId: shardId, Primary: true, CurrentNodeId: "A", State: ShardStateStarted}
	b := ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "B", State: ShardStateStarted}
	c := ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "C", State: ShardStateStarted}
	table := NewBuilder(shardId, false).AddShard(a).AddShard(b).AddShard(c).Build()

	calls := 0
	counting := countingAttributeSource{
		inner: staticNodeAttributes{
			"A": {"rack": "r1"},
			"B": {"rack": "r1"},
			"C": {"rack": "r2"},
		},
		calls: &calls,
	}

	ar1 := table.attributeRoutings([]string{"rack"}, "A", counting)
	firstCalls := calls
	ar2 := table.attributeRoutings([]string{"rack"}, "A", counting)

	if ar1 != ar2 {
		t.Fatal("attributeRoutings returned a different pointer on cache hit")
	}
	if calls != firstCalls {
		t.Fatalf("nodes source consulted again on a cache hit: calls went from %d to %d", firstCalls, calls)
	}

	for i, sh := range ar1.WithSameAttribute {
		if sh.CurrentNodeId == "C" {
			t.Fatalf("withSameAttribute[%d] is node C, which has a different rack", i)
		}
	}
}

type countingAttributeSource struct {
	inner staticNodeAttributes
	calls *int
}

func (c countingAttributeSource) Attributes(nodeId string) (map[string]string, bool) {
	*c.calls++
	return c.inner.Attributes(nodeId)
}

// TestPreferAttributesSkipsAbsentAttribute checks that an attribute
// name missing from the local node's map is skipped rather than
// treated as an empty-string match.
func TestPreferAttributesSkipsAbsentAttribute(t *testing.T) {
	shardId := ShardId{IndexName: "idx", ShardNumber: 0}
	a := ShardRouting{ShardId: shardId, Primary: true, CurrentNodeId: "A", State: ShardStateStarted}
	b := ShardRouting{ShardId: shardId, Primary: false, CurrentNodeId: "B", State: ShardStateStarted}
	table := NewBuilder(shardId, false).AddShard(a).AddShard(b).Build()

	nodes := staticNodeAttributes{
		"A": {}, // no "zone" attribute at all
		"B": {"zone": ""},
	}

	ar := table.attributeRoutings([]string{"zone"}, "A", nodes)
	if len(ar.WithSameAttribute) != 0 {
		t.Fatalf("WithSameAttribute = %+v, want empty (local node lacks the attribute entirely)", ar.WithSameAttribute)
	}
	if len(ar.WithoutSameAttribute) != 2 {
		t.Fatalf("WithoutSameAttribute has %d entries, want 2", len(ar.WithoutSameAttribute))
	}
}
