// Package audit provides sink adapters for commit/reveal lifecycle events.
package audit

import (
	"github.com/google/uuid"

	"github.com/penum-labs/penum-ingress/internal/domain"
	"github.com/penum-labs/penum-ingress/internal/ports"
)

// LogSink writes audit events to the structured logger. Reveal rejections
// are logged at error level so operator alerting can key on them.
type LogSink struct {
	logger ports.Logger
}

// NewLogSink creates an audit sink backed by the given logger.
func NewLogSink(logger ports.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// CommitmentRecorded logs a newly recorded commitment.
func (s *LogSink) CommitmentRecorded(batchID uuid.UUID, commitment domain.Digest) {
	s.logger.Info("commitment recorded",
		ports.String("batch_id", batchID.String()),
		ports.String("commitment", commitment.String()),
	)
}

// RevealVerified logs a successful reveal verification.
func (s *LogSink) RevealVerified(batchID uuid.UUID) {
	s.logger.Debug("reveal verified",
		ports.String("batch_id", batchID.String()),
	)
}

// RevealRejected logs a failed reveal verification.
func (s *LogSink) RevealRejected(batchID uuid.UUID, reason error) {
	s.logger.Error("reveal rejected",
		ports.String("batch_id", batchID.String()),
		ports.Err(reason),
	)
}

// Multi fans each event out to every sink in order.
type Multi []ports.AuditSink

// CommitmentRecorded forwards the event to all sinks.
func (m Multi) CommitmentRecorded(batchID uuid.UUID, commitment domain.Digest) {
	for _, s := range m {
		s.CommitmentRecorded(batchID, commitment)
	}
}

// RevealVerified forwards the event to all sinks.
func (m Multi) RevealVerified(batchID uuid.UUID) {
	for _, s := range m {
		s.RevealVerified(batchID)
	}
}

// RevealRejected forwards the event to all sinks.
func (m Multi) RevealRejected(batchID uuid.UUID, reason error) {
	for _, s := range m {
		s.RevealRejected(batchID, reason)
	}
}

// Noop discards all audit events.
type Noop struct{}

// CommitmentRecorded discards the event.
func (Noop) CommitmentRecorded(uuid.UUID, domain.Digest) {}

// RevealVerified discards the event.
func (Noop) RevealVerified(uuid.UUID) {}

// RevealRejected discards the event.
func (Noop) RevealRejected(uuid.UUID, error) {}
