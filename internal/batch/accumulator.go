// Package batch implements envelope accumulation and batch sealing.
//
// The accumulator is the single writer of pre-batch state: concurrent
// submitters append envelopes to one pending sequence, and either the size
// threshold or the time window seals the sequence into an immutable batch.
// The pending sequence and the last-seal timestamp form one mutual
// exclusion domain, so a seal takes the whole pending set or none of it,
// and no envelope can reach two batches.
package batch

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/penum-labs/penum-ingress/internal/commitment"
	"github.com/penum-labs/penum-ingress/internal/domain"
	"github.com/penum-labs/penum-ingress/internal/ports"
	"github.com/penum-labs/penum-ingress/internal/shuffle"
)

// Accumulator collects envelopes until a size or time trigger seals them
// into a batch. Safe for concurrent use.
type Accumulator struct {
	maxSize    int
	window     time.Duration
	seedPolicy shuffle.SeedPolicy
	validator  ports.PayloadValidator
	clock      func() time.Time

	mu       sync.Mutex
	pending  []domain.Envelope
	nextSeq  uint64
	lastSeal time.Time
}

// NewAccumulator creates an accumulator that seals at maxSize envelopes or
// after window has elapsed since the previous seal, whichever comes first.
func NewAccumulator(maxSize int, window time.Duration, seedPolicy shuffle.SeedPolicy) *Accumulator {
	a := &Accumulator{
		maxSize:    maxSize,
		window:     window,
		seedPolicy: seedPolicy,
		clock:      time.Now,
	}
	a.lastSeal = a.clock()
	return a
}

// WithClock overrides the clock for testing.
func (a *Accumulator) WithClock(clock func() time.Time) *Accumulator {
	a.clock = clock
	a.lastSeal = clock()
	return a
}

// WithValidator sets a payload validator applied before acceptance.
func (a *Accumulator) WithValidator(v ports.PayloadValidator) *Accumulator {
	a.validator = v
	return a
}

// Submit validates the payload, wraps it in an envelope, and appends it to
// the pending sequence. When the append fills the batch to maxSize the
// pending sequence is sealed synchronously and the sealed batch returned;
// otherwise the returned batch is nil.
//
// The returned sequence number is the envelope's arrival position. It is
// assigned even when the submission also seals a batch.
func (a *Accumulator) Submit(payload []byte) (uint64, *domain.Batch, error) {
	if len(payload) == 0 {
		return 0, nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidEnvelope)
	}
	if a.validator != nil {
		if err := a.validator.Validate(payload); err != nil {
			return 0, nil, fmt.Errorf("%w: %v", domain.ErrInvalidEnvelope, err)
		}
	}
	owned := append([]byte(nil), payload...)

	a.mu.Lock()
	env := domain.Envelope{
		Payload:    owned,
		Seq:        a.nextSeq,
		ReceivedAt: a.clock(),
		Version:    domain.EnvelopeVersion,
	}
	a.nextSeq++
	a.pending = append(a.pending, env)

	if len(a.pending) < a.maxSize {
		a.mu.Unlock()
		return env.Seq, nil, nil
	}
	drained := a.drainLocked()
	a.mu.Unlock()

	sealed, err := a.seal(drained)
	return env.Seq, sealed, err
}

// PollTimeTrigger seals the pending sequence when more than the batching
// window has elapsed since the last seal. Returns nil when the window has
// not elapsed or nothing is pending; an empty pending sequence is left
// untouched, so an idle accumulator never emits empty batches and never
// moves its seal timestamp.
func (a *Accumulator) PollTimeTrigger() (*domain.Batch, error) {
	a.mu.Lock()
	if len(a.pending) == 0 || a.clock().Sub(a.lastSeal) <= a.window {
		a.mu.Unlock()
		return nil, nil
	}
	drained := a.drainLocked()
	a.mu.Unlock()

	return a.seal(drained)
}

// Flush seals whatever is pending regardless of the window. Returns nil
// when nothing is pending. Used on shutdown so accepted envelopes are
// never stranded.
func (a *Accumulator) Flush() (*domain.Batch, error) {
	a.mu.Lock()
	if len(a.pending) == 0 {
		a.mu.Unlock()
		return nil, nil
	}
	drained := a.drainLocked()
	a.mu.Unlock()

	return a.seal(drained)
}

// Pending returns the number of envelopes waiting to be sealed.
func (a *Accumulator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// drainLocked takes ownership of the pending sequence, resets it, and
// advances the seal timestamp. The two updates stay inside one critical
// section; callers must hold mu.
func (a *Accumulator) drainLocked() []domain.Envelope {
	drained := a.pending
	a.pending = nil
	a.lastSeal = a.clock()
	return drained
}

// seal builds an immutable batch from a drained pending sequence: fresh
// nonce, commitment over the pre-permutation set, fresh id, seed, permuted
// forwarding order. Runs outside the accumulator lock on a slice this seal
// exclusively owns.
func (a *Accumulator) seal(drained []domain.Envelope) (*domain.Batch, error) {
	nonce, err := commitment.NewNonce()
	if err != nil {
		return nil, fmt.Errorf("seal batch: %w", err)
	}
	digest := commitment.Compute(drained, nonce)

	id := uuid.New()
	seed, err := a.seedPolicy.Seed(id)
	if err != nil {
		return nil, fmt.Errorf("seal batch: %w", err)
	}

	return &domain.Batch{
		ID:         id,
		Envelopes:  shuffle.Permute(drained, seed),
		Nonce:      nonce,
		Commitment: digest,
		Seed:       seed,
		SealedAt:   a.clock(),
	}, nil
}
