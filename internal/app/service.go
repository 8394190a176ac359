package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/penum-labs/penum-ingress/internal/batch"
	"github.com/penum-labs/penum-ingress/internal/domain"
	"github.com/penum-labs/penum-ingress/internal/ledger"
	"github.com/penum-labs/penum-ingress/internal/ports"
)

// flushTimeout bounds the final forward attempt during shutdown, after
// the loop context is already canceled.
const flushTimeout = 10 * time.Second

// ServiceConfig contains configuration for the ingress service loop.
type ServiceConfig struct {
	PollInterval time.Duration
}

// Service orchestrates the ingress pipeline. It accepts transaction
// payloads, drives the accumulator's time trigger, and runs every sealed
// batch through the commit, verify, forward sequence.
type Service struct {
	config      ServiceConfig
	accumulator *batch.Accumulator
	ledger      *ledger.Ledger
	transport   ports.Transport
	metrics     ports.MetricsSink
	audit       ports.AuditSink
	logger      ports.Logger
	emitter     ForwardEventEmitter
}

// ForwardEventEmitter is called as batches move through the pipeline.
type ForwardEventEmitter interface {
	OnBatchSealed(batchID uuid.UUID, size int, commitment domain.Digest)
	OnForwardSuccess(batchID uuid.UUID, size, accepted int, duration time.Duration)
	OnForwardError(batchID uuid.UUID, err error, size int)
	OnRevealRejected(batchID uuid.UUID, err error)
}

// NewService creates a new service with the given dependencies.
func NewService(
	config ServiceConfig,
	accumulator *batch.Accumulator,
	ledger *ledger.Ledger,
	transport ports.Transport,
	metrics ports.MetricsSink,
	audit ports.AuditSink,
	logger ports.Logger,
	emitter ForwardEventEmitter,
) *Service {
	return &Service{
		config:      config,
		accumulator: accumulator,
		ledger:      ledger,
		transport:   transport,
		metrics:     metrics,
		audit:       audit,
		logger:      logger,
		emitter:     emitter,
	}
}

// Submit accepts a single transaction payload for batching.
// It returns the arrival sequence number assigned to the envelope. When
// this submission fills the batch, the sealed batch is dispatched before
// Submit returns.
func (s *Service) Submit(ctx context.Context, payload []byte) (uint64, error) {
	seq, sealed, err := s.accumulator.Submit(payload)
	if err != nil {
		return 0, err
	}
	if sealed != nil {
		s.dispatch(ctx, sealed)
	}
	return seq, nil
}

// Run executes the time-trigger loop.
// It polls the accumulator at the configured interval and dispatches any
// batch whose window has expired. Returns when the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Flush pending envelopes before exit. The loop context is
			// already canceled, so the final forward gets its own bound.
			if s.accumulator.Pending() > 0 {
				flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
				if err := s.Flush(flushCtx); err != nil {
					s.logger.Error("final flush failed", ports.Err(err))
				}
				cancel()
			}
			return ctx.Err()
		case <-ticker.C:
			sealed, err := s.accumulator.PollTimeTrigger()
			if err != nil {
				s.logger.Error("time-window seal failed", ports.Err(err))
				continue
			}
			if sealed != nil {
				s.dispatch(ctx, sealed)
			}
		}
	}
}

// Flush seals whatever is pending and dispatches it immediately,
// regardless of batch size or window age.
func (s *Service) Flush(ctx context.Context) error {
	sealed, err := s.accumulator.Flush()
	if err != nil {
		return err
	}
	if sealed != nil {
		s.dispatch(ctx, sealed)
	}
	return nil
}

// Commitment returns the recorded commitment for a sealed batch.
func (s *Service) Commitment(batchID uuid.UUID) (domain.Digest, bool) {
	return s.ledger.Commitment(batchID)
}

// Pending returns the number of envelopes awaiting seal.
func (s *Service) Pending() int {
	return s.accumulator.Pending()
}

// dispatch runs a sealed batch through the commit, verify, forward
// sequence. The commitment is recorded before the batch leaves the
// process; a batch whose reveal fails verification is withheld.
func (s *Service) dispatch(ctx context.Context, sealed *domain.Batch) {
	age := pendingAge(sealed)
	s.metrics.BatchSealed(sealed.Size(), age)

	s.logger.Info("batch sealed",
		ports.String("batch_id", sealed.ID.String()),
		ports.Int("size", sealed.Size()),
		ports.String("commitment", sealed.Commitment.String()),
		ports.Duration("pending_age", age),
	)

	if s.emitter != nil {
		s.emitter.OnBatchSealed(sealed.ID, sealed.Size(), sealed.Commitment)
	}

	if err := s.ledger.Record(sealed.ID, sealed.Commitment); err != nil {
		// Without a recorded commitment the reveal cannot be verified
		// later, so the batch must not leave the process.
		s.logger.Error("commitment record failed, batch withheld",
			ports.String("batch_id", sealed.ID.String()),
			ports.Err(err),
		)
		return
	}
	s.audit.CommitmentRecorded(sealed.ID, sealed.Commitment)

	if err := s.ledger.VerifyReveal(sealed); err != nil {
		s.audit.RevealRejected(sealed.ID, err)

		s.logger.Error("reveal verification failed, batch withheld",
			ports.String("batch_id", sealed.ID.String()),
			ports.Err(err),
		)

		if s.emitter != nil {
			s.emitter.OnRevealRejected(sealed.ID, err)
		}
		return
	}
	s.audit.RevealVerified(sealed.ID)

	start := time.Now()
	deliveries, err := s.transport.Forward(ctx, sealed)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("forward failed",
			ports.Err(err),
			ports.String("batch_id", sealed.ID.String()),
			ports.Int("size", sealed.Size()),
		)

		if s.emitter != nil {
			s.emitter.OnForwardError(sealed.ID, err, sealed.Size())
		}
		return
	}

	accepted := 0
	for _, d := range deliveries {
		s.metrics.RelayResult(d.Relay, d.Accepted())
		if d.Accepted() {
			accepted++
			continue
		}
		s.logger.Warn("relay rejected batch",
			ports.String("batch_id", sealed.ID.String()),
			ports.String("relay", d.Relay),
			ports.Err(d.Err),
		)
	}
	s.metrics.ForwardCompleted(sealed.Size(), duration)

	s.logger.Info("batch forwarded",
		ports.String("batch_id", sealed.ID.String()),
		ports.Int("size", sealed.Size()),
		ports.Int("relays_accepted", accepted),
		ports.Int("relays_total", len(deliveries)),
		ports.Duration("duration", duration),
	)

	if s.emitter != nil {
		s.emitter.OnForwardSuccess(sealed.ID, sealed.Size(), accepted, duration)
	}
}

// pendingAge reports how long the oldest envelope in the batch waited
// between arrival and seal.
func pendingAge(b *domain.Batch) time.Duration {
	oldest := b.SealedAt
	for _, e := range b.Envelopes {
		if e.ReceivedAt.Before(oldest) {
			oldest = e.ReceivedAt
		}
	}
	return b.SealedAt.Sub(oldest)
}
