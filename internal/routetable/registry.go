package routetable

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/dreamware/meridian/internal/routing"
)

// Registry holds every known shard's routing table and the shard
// count of every known index.
//
// Thread Safety: safe for unbounded concurrent callers. Put,
// SetShardCount, and Remove take an exclusive lock; every read-only
// method takes a shared lock. No external call happens while the lock
// is held.
type Registry struct {
	tables      map[routing.ShardId]*routing.IndexShardRoutingTable
	shardCounts map[string]int
	metrics     metricsSink
	mu          sync.RWMutex
}

// NewRegistry creates an empty registry.
//
// Parameters:
//   - metrics: the sink notified of shard-count, lookup-hit/miss, and
//     policy-dispatch events. Passing nil is valid and installs a
//     no-op sink that costs nothing on the hot lookup path.
//
// Returns:
//   - *Registry: an empty registry with no tables and no recorded
//     shard counts.
//
// Thread Safety: safe to call from any goroutine; the returned
// Registry is independently safe for concurrent use once returned.
func NewRegistry(metrics metricsSink) *Registry {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Registry{
		tables:      make(map[routing.ShardId]*routing.IndexShardRoutingTable),
		shardCounts: make(map[string]int),
		metrics:     metrics,
	}
}

// Put installs or replaces the routing table for one shard. The
// index's known shard count grows to fit shardId.ShardNumber if
// necessary; it never shrinks on a Put, since a single shard's table
// being rebuilt says nothing about the index's total shard count.
//
// Parameters:
//   - shardId: the (index name, shard number) pair table was built for.
//   - table: the table to install. Replaces any table previously
//     registered for shardId.
//
// Thread Safety: safe for unbounded concurrent callers; takes the
// registry's exclusive lock for the duration of the call.
func (r *Registry) Put(shardId routing.ShardId, table *routing.IndexShardRoutingTable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[shardId] = table
	if n := shardId.ShardNumber + 1; n > r.shardCounts[shardId.IndexName] {
		r.shardCounts[shardId.IndexName] = n
	}
	r.metrics.setShardCount(shardId.IndexName, r.shardCounts[shardId.IndexName])
}

// SetShardCount records an index's total shard count directly,
// independent of which shards have tables registered yet. Callers
// normally use this once at index-creation time, before any
// individual shard's Put.
//
// Parameters:
//   - indexName: the index to record a shard count for.
//   - count: the total number of shards the index is divided into.
//     Overwrites any previously recorded count for indexName, and is
//     not validated against any table already registered.
//
// Thread Safety: safe for unbounded concurrent callers; takes the
// registry's exclusive lock for the duration of the call.
func (r *Registry) SetShardCount(indexName string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shardCounts[indexName] = count
	r.metrics.setShardCount(indexName, count)
}

// Remove drops a single shard's routing table from the registry. The
// index's recorded shard count is left untouched.
//
// Parameters:
//   - shardId: the shard whose table should be dropped. Removing an
//     unregistered shardId is a no-op.
//
// Thread Safety: safe for unbounded concurrent callers; takes the
// registry's exclusive lock for the duration of the call.
func (r *Registry) Remove(shardId routing.ShardId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, shardId)
}

// Get returns the routing table for a shard, or (nil, false) if it is
// not registered.
//
// Parameters:
//   - shardId: the shard to look up.
//
// Returns:
//   - *routing.IndexShardRoutingTable: the registered table, or nil
//     when ok is false.
//   - ok: false when no table has been Put for shardId (or it has
//     since been Removed).
//
// Thread Safety: safe for unbounded concurrent callers; takes the
// registry's shared lock for the duration of the call.
func (r *Registry) Get(shardId routing.ShardId) (*routing.IndexShardRoutingTable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[shardId]
	return t, ok
}

// Indices returns the names of every index with a recorded shard
// count, in no particular order.
//
// Returns:
//   - []string: every index name passed to Put or SetShardCount so
//     far, deduplicated. Never nil; empty when the registry holds no
//     indices yet.
//
// Performance: O(n) for n known indices; allocates the returned slice.
//
// Thread Safety: safe for unbounded concurrent callers; takes the
// registry's shared lock for the duration of the call.
func (r *Registry) Indices() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.shardCounts))
	for name := range r.shardCounts {
		names = append(names, name)
	}
	return names
}

// ShardNumberForKey deterministically maps a routing key to a shard
// number within an index, via FNV-1a hashing modulo the index's known
// shard count.
//
// Parameters:
//   - indexName: the index whose shard count to hash against. Must
//     have a recorded shard count (from Put or SetShardCount).
//   - key: the routing key, typically a document id.
//
// Returns:
//   - int: hash(key) mod shardCounts[indexName]. Deterministic: the
//     same (indexName, key, recorded count) always yields the same
//     number.
//   - error: non-nil when indexName has no recorded shard count, or a
//     recorded count of 0.
//
// Performance: O(k) for a key of length k; independent of the number
// of registered shards.
//
// Thread Safety: safe for unbounded concurrent callers; takes the
// registry's shared lock only to read the recorded shard count.
func (r *Registry) ShardNumberForKey(indexName, key string) (int, error) {
	r.mu.RLock()
	count, ok := r.shardCounts[indexName]
	r.mu.RUnlock()
	if !ok || count == 0 {
		return 0, fmt.Errorf("routetable: index %q has no known shard count", indexName)
	}

	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32()) % count, nil
}

// TableForKey resolves a routing key straight to the shard table that
// owns it, the common case for a coordinator dispatching a
// single-document request: it only needs the table to build an
// iterator from, not the shard number itself.
//
// Parameters:
//   - indexName: the index to resolve key against.
//   - key: the routing key, typically a document id.
//
// Returns:
//   - *routing.IndexShardRoutingTable: the table owning key's shard,
//     non-nil only when error is nil.
//   - error: non-nil when indexName has no recorded shard count, or
//     the resolved shard has no table registered yet.
//
// Performance: O(k) for a key of length k, plus one map lookup.
//
// Thread Safety: safe for unbounded concurrent callers; composes
// ShardNumberForKey and Get, each independently lock-safe.
func (r *Registry) TableForKey(indexName, key string) (*routing.IndexShardRoutingTable, error) {
	shardNum, err := r.ShardNumberForKey(indexName, key)
	if err != nil {
		r.metrics.incLookupMiss(indexName)
		return nil, err
	}

	shardId := routing.ShardId{IndexName: indexName, ShardNumber: shardNum}
	table, ok := r.Get(shardId)
	if !ok {
		r.metrics.incLookupMiss(indexName)
		return nil, fmt.Errorf("routetable: no table registered for %s", shardId)
	}
	r.metrics.incLookupHit(indexName)
	return table, nil
}

// Dispatch resolves a routing key to its shard table and builds an
// iterator from the given policy in one call, recording the policy
// kind in the dispatch-count metric. This is the entry point a
// coordinator's request path is expected to use.
//
// Parameters:
//   - indexName: the index to resolve key against.
//   - key: the routing key, typically a document id.
//   - policy: the iterator selection policy to apply to the resolved
//     table.
//
// Returns:
//   - *routing.ShardIterator: the iterator routing.BuildIterator
//     produces for the resolved table and policy, non-nil only when
//     error is nil.
//   - error: propagated unchanged from TableForKey; policy dispatch
//     itself cannot fail.
//
// Thread Safety: safe for unbounded concurrent callers; composes
// TableForKey (lock-safe) with routing.BuildIterator (lock-free) and a
// metrics-sink call.
func (r *Registry) Dispatch(indexName, key string, policy routing.Policy) (*routing.ShardIterator, error) {
	table, err := r.TableForKey(indexName, key)
	if err != nil {
		return nil, err
	}
	r.metrics.incPolicyDispatch(policyKindLabel(policy.Kind))
	return routing.BuildIterator(table, policy), nil
}
