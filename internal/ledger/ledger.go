// Package ledger implements the commit-reveal ledger.
//
// The ledger is the trust anchor of the ingress: a commitment is recorded
// before its batch is disclosed anywhere, and every reveal is checked
// against the recorded digest. Entries are append-only; the first record
// for a batch id wins and later records fail.
package ledger

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/penum-labs/penum-ingress/internal/commitment"
	"github.com/penum-labs/penum-ingress/internal/domain"
)

// Ledger is an append-only, in-memory commitment store.
// Safe for concurrent use.
type Ledger struct {
	mu          sync.RWMutex
	commitments map[uuid.UUID]domain.Digest
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		commitments: make(map[uuid.UUID]domain.Digest),
	}
}

// Record stores the commitment for a batch id. Exactly one record per id
// is accepted; a second record returns ErrDuplicateCommitment and leaves
// the first intact.
func (l *Ledger) Record(batchID uuid.UUID, digest domain.Digest) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.commitments[batchID]; ok {
		return fmt.Errorf("%w: batch %s already bound to %s", domain.ErrDuplicateCommitment, batchID, prev)
	}
	l.commitments[batchID] = digest
	return nil
}

// VerifyReveal checks a revealed batch against its recorded commitment.
//
// Returns ErrCommitmentNotFound when the batch id was never committed
// (an unknown batch is a hard failure, never a pass) and
// ErrCommitmentMismatch when the revealed envelopes and nonce do not
// reproduce the recorded digest. The stored envelope order is irrelevant;
// verification recomputes over the payload set.
func (l *Ledger) VerifyReveal(batch *domain.Batch) error {
	l.mu.RLock()
	recorded, ok := l.commitments[batch.ID]
	l.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: batch %s", domain.ErrCommitmentNotFound, batch.ID)
	}
	if !commitment.Verify(batch.Envelopes, batch.Nonce, recorded) {
		return fmt.Errorf("%w: batch %s", domain.ErrCommitmentMismatch, batch.ID)
	}
	return nil
}

// Commitment returns the recorded digest for a batch id.
func (l *Ledger) Commitment(batchID uuid.UUID) (domain.Digest, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, ok := l.commitments[batchID]
	return d, ok
}

// Len returns the number of recorded commitments.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.commitments)
}
