package clusterstate

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Node is the directory's view of one cluster member: its identity,
// address, and last-known attribute map. Node instances returned by
// Directory are copies; callers cannot mutate directory state through
// them.
type Node struct {
	ID         string
	Addr       string
	Attributes map[string]string
	LastFetch  time.Time
	Stale      bool
}

// Directory is a thread-safe registry of cluster nodes and their
// attribute maps, refreshed on a timer by polling each node's
// attribute endpoint. It implements [routing.NodeAttributeSource], so
// it can be passed directly to the prefer-attributes iterator
// policies.
//
// Directory is adapted from the teacher's HealthMonitor
// (internal/coordinator/health_monitor.go in the upstream repo this
// was generalized from): the same ticker-driven poll loop and
// RWMutex-guarded map, but polling a node's attribute set instead of
// a health endpoint, and with no unhealthy-threshold/callback
// machinery — the routing core only needs attribute values, not a
// health state machine.
type Directory struct {
	nodes      map[string]*Node
	httpClient *http.Client
	fetchFunc  func(addr string) (map[string]string, error)
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	interval   time.Duration
	mu         sync.RWMutex
	wg         sync.WaitGroup
}

// NewDirectory creates a Directory that refreshes attributes every
// interval. logger may be nil, in which case a no-op logger is used.
func NewDirectory(interval time.Duration, logger *zap.Logger) *Directory {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Directory{
		nodes:      make(map[string]*Node),
		httpClient: &http.Client{Timeout: 2 * time.Second},
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		interval:   interval,
	}
	d.fetchFunc = d.defaultFetchAttributes
	return d
}

// Register adds or replaces a node's address in the directory. Its
// attributes are populated on the next refresh tick (or immediately
// via RefreshOnce).
func (d *Directory) Register(id, addr string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.nodes[id]; ok {
		existing.Addr = addr
		return
	}
	d.nodes[id] = &Node{ID: id, Addr: addr, Stale: true}
}

// SetAttributes directly installs a node's attribute map, bypassing
// HTTP discovery. Used by tests and by operators seeding a static
// cluster-attributes file (see config.go).
func (d *Directory) SetAttributes(id string, attrs map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[id]
	if !ok {
		n = &Node{ID: id}
		d.nodes[id] = n
	}
	n.Attributes = attrs
	n.LastFetch = time.Now()
	n.Stale = false
}

// Attributes implements routing.NodeAttributeSource: it returns a
// node's last-known attribute map, and whether the node is known at
// all. A known-but-never-fetched node returns (nil, true) with a nil
// map, which the routing package's grouping algorithm treats as "no
// attribute has a value" for every name — distinct from "node
// unknown", which returns false.
func (d *Directory) Attributes(nodeId string) (map[string]string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[nodeId]
	if !ok {
		return nil, false
	}
	return n.Attributes, true
}

// Snapshot returns a copy of every known node.
func (d *Directory) Snapshot() []Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		cp := *n
		cp.Attributes = maps.Clone(n.Attributes)
		out = append(out, cp)
	}
	return out
}

// Start begins the refresh loop in the current goroutine, blocking
// until ctx (or the Directory's internal context) is canceled.
func (d *Directory) Start(ctx context.Context) {
	d.wg.Add(1)
	defer d.wg.Done()

	if ctx == nil {
		ctx = d.ctx
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("cluster attribute directory started", zap.Duration("interval", d.interval))
	d.RefreshOnce()

	for {
		select {
		case <-ticker.C:
			d.RefreshOnce()
		case <-ctx.Done():
			d.logger.Info("cluster attribute directory stopping: context canceled")
			return
		case <-d.ctx.Done():
			d.logger.Info("cluster attribute directory stopping: internal cancellation")
			return
		}
	}
}

// Stop cancels the refresh loop and waits for it to exit.
func (d *Directory) Stop() {
	d.cancel()
	d.wg.Wait()
}

// RefreshOnce fetches attributes for every registered node a single
// time, logging (not failing) per-node errors — one unreachable node
// must not block attribute refresh for the rest of the cluster.
func (d *Directory) RefreshOnce() {
	d.mu.RLock()
	addrs := make(map[string]string, len(d.nodes))
	for id, n := range d.nodes {
		addrs[id] = n.Addr
	}
	d.mu.RUnlock()

	for id, addr := range addrs {
		attrs, err := d.fetchFunc(addr)
		if err != nil {
			d.logger.Warn("attribute refresh failed", zap.String("node", id), zap.Error(err))
			d.markStale(id)
			continue
		}
		d.SetAttributes(id, attrs)
	}
}

func (d *Directory) markStale(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.nodes[id]; ok {
		n.Stale = true
	}
}

// SetFetchFunction overrides the attribute-fetch function, primarily
// for tests.
func (d *Directory) SetFetchFunction(f func(addr string) (map[string]string, error)) {
	d.fetchFunc = f
}

func (d *Directory) defaultFetchAttributes(addr string) (map[string]string, error) {
	url := addr
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = fmt.Sprintf("http://%s", url)
	}
	if !strings.HasSuffix(url, "/attributes") {
		url = strings.TrimRight(url, "/") + "/attributes"
	}

	resp, err := d.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("attribute fetch request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attribute fetch returned status %d", resp.StatusCode)
	}

	var attrs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("decoding attribute response: %w", err)
	}
	return attrs, nil
}
