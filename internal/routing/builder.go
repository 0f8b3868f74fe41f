package routing

// Builder accumulates [ShardRouting] entries for one shardId and
// freezes them into an [IndexShardRoutingTable]. A Builder is single
// use: once Build has been called its behavior on further calls is
// undefined, mirroring the "open then built, terminal" state machine
// described for the table itself.
type Builder struct {
	shardId          ShardId
	shards           []ShardRouting
	allocatedPostApi bool
}

// NewBuilder starts a Builder for shardId. allocatedPostApi seeds the
// sticky flag; Build additionally forces it true if any primary added
// before Build is active, per invariant I4.
func NewBuilder(shardId ShardId, allocatedPostApi bool) *Builder {
	return &Builder{shardId: shardId, allocatedPostApi: allocatedPostApi}
}

// AddShard appends entry to the builder, unless doing so would violate
// invariant I3 (no two assigned replicas of one shard group share a
// node) — in which case entry is dropped silently, matching the
// documented idempotent-add contract used when replaying duplicate
// cluster-state updates.
func (b *Builder) AddShard(entry ShardRouting) *Builder {
	for _, existing := range b.shards {
		if sameAssignment(existing, entry) {
			return b
		}
	}
	b.shards = append(b.shards, entry)
	return b
}

// RemoveShard removes the first entry structurally equal to target,
// if any. It is a no-op if no such entry exists.
func (b *Builder) RemoveShard(target ShardRouting) *Builder {
	for i, sh := range b.shards {
		if sh == target {
			b.shards = append(b.shards[:i], b.shards[i+1:]...)
			return b
		}
	}
	return b
}

// Build freezes the accumulated entries into an IndexShardRoutingTable.
// It promotes allocatedPostApi to true if any primary among the
// accumulated entries is active, then constructs the four derived
// views and seeds the round-robin counter. Building with zero entries
// is legal and yields an empty group.
func (b *Builder) Build() *IndexShardRoutingTable {
	return buildFrom(b.shardId, b.shards, b.allocatedPostApi)
}
