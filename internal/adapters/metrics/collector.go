// Package metrics provides in-memory aggregation of ingress measurements.
package metrics

import (
	"sync"
	"time"
)

// Collector implements ports.MetricsSink with in-memory counters.
// Safe for concurrent use; observations never block.
type Collector struct {
	mu                sync.Mutex
	batchesSealed     uint64
	envelopesSealed   uint64
	sumPendingAge     time.Duration
	forwards          uint64
	sumForwardLatency time.Duration
	relays            map[string]*relayStats
}

type relayStats struct {
	accepted uint64
	total    uint64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		relays: make(map[string]*relayStats),
	}
}

// BatchSealed records a sealed batch.
func (c *Collector) BatchSealed(size int, pendingAge time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.batchesSealed++
	c.envelopesSealed += uint64(size)
	c.sumPendingAge += pendingAge
}

// ForwardCompleted records one forward's end-to-end latency.
func (c *Collector) ForwardCompleted(batchSize int, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.forwards++
	c.sumForwardLatency += latency
}

// RelayResult records a single relay's accept/reject outcome.
func (c *Collector) RelayResult(relay string, accepted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.relays[relay]
	if !ok {
		stats = &relayStats{}
		c.relays[relay] = stats
	}
	stats.total++
	if accepted {
		stats.accepted++
	}
}

// RelayAcceptance is a relay's cumulative accept count and rate.
type RelayAcceptance struct {
	Accepted uint64
	Total    uint64
	Rate     float64
}

// Snapshot is a point-in-time aggregate of all observations.
type Snapshot struct {
	BatchesSealed     uint64
	EnvelopesSealed   uint64
	AvgBatchSize      float64
	AvgPendingAge     time.Duration
	Forwards          uint64
	AvgForwardLatency time.Duration
	RelayAcceptance   map[string]RelayAcceptance
}

// Snapshot returns the current aggregates.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		BatchesSealed:   c.batchesSealed,
		EnvelopesSealed: c.envelopesSealed,
		Forwards:        c.forwards,
		RelayAcceptance: make(map[string]RelayAcceptance, len(c.relays)),
	}
	if c.batchesSealed > 0 {
		s.AvgBatchSize = float64(c.envelopesSealed) / float64(c.batchesSealed)
		s.AvgPendingAge = c.sumPendingAge / time.Duration(c.batchesSealed)
	}
	if c.forwards > 0 {
		s.AvgForwardLatency = c.sumForwardLatency / time.Duration(c.forwards)
	}
	for relay, stats := range c.relays {
		acc := RelayAcceptance{Accepted: stats.accepted, Total: stats.total}
		if stats.total > 0 {
			acc.Rate = float64(stats.accepted) / float64(stats.total)
		}
		s.RelayAcceptance[relay] = acc
	}
	return s
}

// Noop discards all observations.
type Noop struct{}

// BatchSealed discards the observation.
func (Noop) BatchSealed(int, time.Duration) {}

// ForwardCompleted discards the observation.
func (Noop) ForwardCompleted(int, time.Duration) {}

// RelayResult discards the observation.
func (Noop) RelayResult(string, bool) {}
