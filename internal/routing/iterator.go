package routing

// ShardIterator is a single-pass cursor over a materialized, already
// ordered sequence of [ShardRouting] values, returned by every policy
// in policy.go (directly or via [BuildIterator]).
//
// It holds its own copy of the ordering, not a reference to the table
// that produced it, so an iterator remains valid even after its parent
// table is discarded: the owning table may be dropped as soon as every
// iterator derived from it has been handed to its caller, without
// waiting for those iterators to be fully consumed.
//
// Thread Safety:
// A single ShardIterator value is not safe for concurrent use — Next
// mutates an internal cursor with no synchronization, matching the
// single-pass, single-consumer contract every iterator selection
// policy assumes. Distinct ShardIterator values, even ones derived
// from the same table, share no state and may be used concurrently
// from different goroutines.
type ShardIterator struct {
	shardId ShardId
	shards  []ShardRouting
	pos     int
}

// newShardIterator wraps an already-ordered slice. Callers must not
// reuse or mutate shards after the iterator is constructed.
func newShardIterator(id ShardId, shards []ShardRouting) *ShardIterator {
	return &ShardIterator{shardId: id, shards: shards}
}

// ShardId returns the shard this iterator dispatches for.
//
// Returns:
//   - ShardId: the identity of the shard this iterator was built from.
//     Constant for the iterator's lifetime.
//
// Thread Safety: safe to call from any single goroutine that owns this
// iterator; see the type's Thread Safety note for the no-concurrent-
// use-per-instance rule.
func (it *ShardIterator) ShardId() ShardId { return it.shardId }

// Next advances the iterator and returns the next replica in order.
//
// Returns:
//   - ShardRouting: the next element in this iterator's materialized
//     ordering, valid only when ok is true.
//   - ok: false once every element has been consumed (the zero value
//     of ShardRouting is returned alongside, and must be ignored).
//
// Iterators are single-pass: once exhausted, a ShardIterator cannot be
// rewound or restarted. Build a fresh one from the table instead.
//
// Thread Safety: not safe for concurrent calls on the same iterator
// (see the type's Thread Safety note); safe to call repeatedly from
// the single goroutine that owns it.
func (it *ShardIterator) Next() (ShardRouting, bool) {
	if it.pos >= len(it.shards) {
		return ShardRouting{}, false
	}
	sh := it.shards[it.pos]
	it.pos++
	return sh, true
}

// Remaining returns the number of elements not yet consumed by Next.
//
// Returns:
//   - int: len(ordering) - elements already returned by Next. Callers
//     dispatching a request typically use this to size a result slice
//     up front (see cmd/meridian-coordinator's handleDispatch).
//
// Thread Safety: not safe for concurrent calls alongside Next on the
// same iterator; safe to call repeatedly from the single goroutine
// that owns it.
func (it *ShardIterator) Remaining() int {
	return len(it.shards) - it.pos
}

// rotate returns rot(seq, k) = [seq[(k+i) mod n] for i in 0..n), always
// allocating a fresh slice. k is reduced to |k| mod n (the remainder
// is taken first and its sign dropped, which gives the same value and
// also covers math.MinInt64), so a signed wraparound (e.g. a counter
// that has wrapped past math.MaxInt64) still yields a valid rotation
// rather than a panic.
func rotate(seq []ShardRouting, k int) []ShardRouting {
	n := len(seq)
	out := make([]ShardRouting, n)
	if n == 0 {
		return out
	}
	k %= n
	if k < 0 {
		k = -k
	}
	for i := 0; i < n; i++ {
		out[i] = seq[(k+i)%n]
	}
	return out
}

// swapToFront swaps seq[0] with seq[idx] in place. idx < 0 or idx == 0
// is a no-op (nothing to swap, or already in front).
func swapToFront(seq []ShardRouting, idx int) {
	if idx <= 0 || idx >= len(seq) {
		return
	}
	seq[0], seq[idx] = seq[idx], seq[0]
}

// indexOfNode returns the index of the first entry whose
// CurrentNodeId == nodeId, or -1 if none match.
func indexOfNode(seq []ShardRouting, nodeId string) int {
	for i, sh := range seq {
		if sh.CurrentNodeId == nodeId {
			return i
		}
	}
	return -1
}

// indexOfPrimary returns the index of the first entry with Primary ==
// true, or -1 if none match.
func indexOfPrimary(seq []ShardRouting) int {
	for i, sh := range seq {
		if sh.Primary {
			return i
		}
	}
	return -1
}

// fetchAndIncrement performs one atomic read-then-increment of the
// table's round-robin counter and returns the pre-increment value,
// matching the "counter.fetchAndIncrement()" contract in spec: called
// exactly once per randomized iterator construction.
func (t *IndexShardRoutingTable) fetchAndIncrement() int {
	return int(t.counter.Add(1) - 1)
}
