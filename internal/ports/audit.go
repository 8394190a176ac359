package ports

import (
	"github.com/google/uuid"

	"github.com/penum-labs/penum-ingress/internal/domain"
)

// AuditSink receives commit/reveal lifecycle notifications for offline
// audit. A reveal rejection is a security signal: it means a batch failed
// to reproduce its recorded commitment and was withheld from forwarding.
type AuditSink interface {
	// CommitmentRecorded is called when a commitment enters the ledger.
	CommitmentRecorded(batchID uuid.UUID, commitment domain.Digest)

	// RevealVerified is called when a reveal reproduced its commitment.
	RevealVerified(batchID uuid.UUID)

	// RevealRejected is called when a reveal failed verification.
	// The reason distinguishes an unknown batch from a mismatch.
	RevealRejected(batchID uuid.UUID, reason error)
}
