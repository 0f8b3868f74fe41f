// Package clusterstate tracks which nodes are known to the cluster and
// their attribute maps (rack, zone, and similar placement metadata),
// refreshed on a timer by polling each node directly.
//
// # Overview
//
// This package is the minimal external collaborator the routing
// package's preferAttributesActiveShardsIt policy needs: "a handle to
// the local node's attribute map" and a way to resolve another node's
// attributes by id. It is deliberately thin — it is bookkeeping, not
// cluster-state consensus or leader election, and it holds no opinion
// about shard placement or routing tables. Routing decisions live
// entirely in package routing; this package only answers "what
// attributes does node X currently report?"
//
// # Architecture
//
//	┌──────────────────────────────────────┐
//	│              Directory                │
//	├──────────────────────────────────────┤
//	│  nodes map[string]*Node               │
//	│    - id, addr, attributes, lastFetch  │
//	│    - RWMutex-guarded                  │
//	├──────────────────────────────────────┤
//	│  refresh loop (ticker-driven)         │
//	│    - GET {addr}/attributes per node   │
//	│    - one unreachable node never       │
//	│      blocks the others                │
//	└──────────────────────────────────────┘
//	           │                  ▲
//	           │ Attributes(id)   │ Register(id, addr)
//	           ▼                  │ SetAttributes(id, attrs)
//	   routing.PreferAttributes…  cmd/meridian-coordinator
//	   (via NodeAttributeSource)  or config.LoadStaticConfig
//
// # Core Components
//
// Directory: the thread-safe node registry.
//   - Register/SetAttributes accept new nodes or install attribute
//     maps directly (used by tests and by StaticConfig.Seed).
//   - Attributes implements routing.NodeAttributeSource, so a Directory
//     can be passed straight into the prefer-attributes iterator
//     policies with no adapter.
//   - Start runs a ticker-driven refresh loop that polls every known
//     node's /attributes endpoint; Stop cancels it and waits for the
//     goroutine to exit.
//
// StaticConfig: an on-disk alternative to polling.
//   - A flat YAML list of node id -> attribute map, for clusters small
//     or static enough that an HTTP poll loop is unnecessary overhead.
//   - LoadStaticConfig parses the file; Seed installs every entry into
//     a Directory so prefer-attributes policies can resolve them
//     immediately, without waiting on a poll cycle.
//
// # Attribute Resolution Semantics
//
// A node id absent from the Directory and a node id present but with a
// nil attribute map are distinct states:
//   - Unknown node: Attributes(id) returns (nil, false). The caller
//     should treat this the way routing's grouping algorithm does —
//     as "no local node to compare against," not as "no attributes."
//   - Known, unfetched (or fetched-empty) node: Attributes(id) returns
//     (nil-or-empty map, true). Every attribute name is then absent for
//     that node, which the grouping algorithm treats as "does not share
//     this attribute" rather than an error.
//
// # Concurrency and Synchronization
//
// Lock Granularity:
//   - A single RWMutex guards the node map; reads (Attributes,
//     Snapshot) take RLock, writes (Register, SetAttributes,
//     markStale) take Lock.
//   - RefreshOnce releases the lock before making any HTTP call, so a
//     slow or hung node does not hold up readers or other refreshes.
//
// Goroutine Lifecycle:
//   - Start blocks the calling goroutine until its context (or the
//     Directory's own internal context) is canceled; callers normally
//     run it with `go dir.Start(ctx)`.
//   - Stop cancels the internal context and waits (via sync.WaitGroup)
//     for the refresh loop to observe cancellation and return.
//
// # Performance Characteristics
//
//   - Attributes / Register / SetAttributes: O(1) map access under a
//     single lock acquisition.
//   - RefreshOnce: O(n) HTTP requests for n registered nodes, issued
//     sequentially; a 2-second per-request timeout bounds a single
//     unreachable node's cost.
//   - Snapshot: O(n), allocates and copies every Node.
//
// # See Also
//
// Related packages:
//   - internal/routing: consumes Directory through the
//     NodeAttributeSource interface for preferAttributesActiveShardsIt.
//   - cmd/meridian-coordinator: owns the Directory instance, starts its
//     refresh loop, and optionally seeds it from a StaticConfig file.
package clusterstate
