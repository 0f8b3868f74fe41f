package routetable

// metrics.go is a thin abstraction over Prometheus so the registry
// can be used with or without metrics: callers who pass a
// *prometheus.Registry get labeled counters and a gauge; everyone
// else gets a no-op sink that costs nothing on the lookup path.
//
// Grounded on the teacher pack's arena-cache metricsSink (not part of
// johnjansen-torua itself): same internal-interface-plus-noop shape,
// adapted from cache hit/miss/eviction counters to routing-table
// lookups and policy dispatches.

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsSink is the internal interface the registry talks to; it is
// not exported, so callers only ever see *Registry and the
// constructors below.
type metricsSink interface {
	setShardCount(indexName string, count int)
	incLookupHit(indexName string)
	incLookupMiss(indexName string)
	incPolicyDispatch(kind string)
}

type noopMetrics struct{}

func (noopMetrics) setShardCount(string, int) {}
func (noopMetrics) incLookupHit(string)       {}
func (noopMetrics) incLookupMiss(string)      {}
func (noopMetrics) incPolicyDispatch(string)  {}

type promMetrics struct {
	shardCount     *prometheus.GaugeVec
	lookupHits     *prometheus.CounterVec
	lookupMisses   *prometheus.CounterVec
	policyDispatch *prometheus.CounterVec
}

// NewPrometheusMetrics builds a metrics sink registered against reg.
// Passing a nil *prometheus.Registry returns the same no-op sink that
// NewRegistry(nil) installs.
func NewPrometheusMetrics(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}

	pm := &promMetrics{
		shardCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "meridian",
			Subsystem: "routetable",
			Name:      "shard_count",
			Help:      "Known shard count per index.",
		}, []string{"index"}),
		lookupHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meridian",
			Subsystem: "routetable",
			Name:      "lookup_hits_total",
			Help:      "Routing-key lookups that resolved to a registered shard table.",
		}, []string{"index"}),
		lookupMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meridian",
			Subsystem: "routetable",
			Name:      "lookup_misses_total",
			Help:      "Routing-key lookups for an index with no known shard count or an unregistered shard.",
		}, []string{"index"}),
		policyDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meridian",
			Subsystem: "routetable",
			Name:      "policy_dispatch_total",
			Help:      "Iterator policy invocations, by policy kind.",
		}, []string{"policy"}),
	}

	reg.MustRegister(pm.shardCount, pm.lookupHits, pm.lookupMisses, pm.policyDispatch)
	return pm
}

func (m *promMetrics) setShardCount(indexName string, count int) {
	m.shardCount.WithLabelValues(indexName).Set(float64(count))
}

func (m *promMetrics) incLookupHit(indexName string) {
	m.lookupHits.WithLabelValues(indexName).Inc()
}

func (m *promMetrics) incLookupMiss(indexName string) {
	m.lookupMisses.WithLabelValues(indexName).Inc()
}

func (m *promMetrics) incPolicyDispatch(kind string) {
	m.policyDispatch.WithLabelValues(kind).Inc()
}
