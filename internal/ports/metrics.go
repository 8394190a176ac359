package ports

import "time"

// MetricsSink receives ingress measurements.
// Implementations must be safe for concurrent use and must not block;
// observations are fire and forget.
type MetricsSink interface {
	// BatchSealed records a sealed batch: its size and how long its
	// oldest envelope waited in the pending set.
	BatchSealed(size int, pendingAge time.Duration)

	// ForwardCompleted records the end-to-end latency of one forward.
	ForwardCompleted(batchSize int, latency time.Duration)

	// RelayResult records whether a single relay accepted a batch.
	RelayResult(relay string, accepted bool)
}
