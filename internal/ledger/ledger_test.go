package ledger

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/penum-labs/penum-ingress/internal/commitment"
	"github.com/penum-labs/penum-ingress/internal/domain"
)

func sealedBatch(payloads ...string) *domain.Batch {
	envs := make([]domain.Envelope, len(payloads))
	for i, p := range payloads {
		envs[i] = domain.Envelope{
			Payload: []byte(p),
			Seq:     uint64(i),
			Version: domain.EnvelopeVersion,
		}
	}
	nonce := domain.Nonce{0x42}
	return &domain.Batch{
		ID:         uuid.New(),
		Envelopes:  envs,
		Nonce:      nonce,
		Commitment: commitment.Compute(envs, nonce),
	}
}

func TestRecordAndVerifyReveal(t *testing.T) {
	l := New()
	batch := sealedBatch("tx-a", "tx-b", "tx-c")

	if err := l.Record(batch.ID, batch.Commitment); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := l.VerifyReveal(batch); err != nil {
		t.Errorf("VerifyReveal() error = %v, want nil", err)
	}
}

func TestVerifyRevealUnknownBatch(t *testing.T) {
	l := New()
	batch := sealedBatch("tx-a")

	err := l.VerifyReveal(batch)
	if !errors.Is(err, domain.ErrCommitmentNotFound) {
		t.Errorf("VerifyReveal() error = %v, want ErrCommitmentNotFound", err)
	}
}

func TestVerifyRevealTampered(t *testing.T) {
	l := New()
	batch := sealedBatch("tx-a", "tx-b")
	if err := l.Record(batch.ID, batch.Commitment); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	t.Run("payload modified", func(t *testing.T) {
		tampered := *batch
		tampered.Envelopes = append([]domain.Envelope(nil), batch.Envelopes...)
		tampered.Envelopes[0].Payload = []byte("tx-evil")

		if err := l.VerifyReveal(&tampered); !errors.Is(err, domain.ErrCommitmentMismatch) {
			t.Errorf("VerifyReveal() error = %v, want ErrCommitmentMismatch", err)
		}
	})

	t.Run("envelope dropped", func(t *testing.T) {
		tampered := *batch
		tampered.Envelopes = batch.Envelopes[:1]

		if err := l.VerifyReveal(&tampered); !errors.Is(err, domain.ErrCommitmentMismatch) {
			t.Errorf("VerifyReveal() error = %v, want ErrCommitmentMismatch", err)
		}
	})

	t.Run("wrong nonce", func(t *testing.T) {
		tampered := *batch
		tampered.Nonce = domain.Nonce{0xde, 0xad}

		if err := l.VerifyReveal(&tampered); !errors.Is(err, domain.ErrCommitmentMismatch) {
			t.Errorf("VerifyReveal() error = %v, want ErrCommitmentMismatch", err)
		}
	})
}

func TestVerifyRevealReordered(t *testing.T) {
	l := New()
	batch := sealedBatch("tx-a", "tx-b", "tx-c")
	if err := l.Record(batch.ID, batch.Commitment); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	reordered := *batch
	reordered.Envelopes = []domain.Envelope{
		batch.Envelopes[2], batch.Envelopes[0], batch.Envelopes[1],
	}
	if err := l.VerifyReveal(&reordered); err != nil {
		t.Errorf("VerifyReveal() of reordered batch error = %v, want nil", err)
	}
}

func TestRecordDuplicate(t *testing.T) {
	l := New()
	batch := sealedBatch("tx-a")

	if err := l.Record(batch.ID, batch.Commitment); err != nil {
		t.Fatalf("first Record() error = %v", err)
	}

	other := domain.Digest{0x99}
	err := l.Record(batch.ID, other)
	if !errors.Is(err, domain.ErrDuplicateCommitment) {
		t.Errorf("second Record() error = %v, want ErrDuplicateCommitment", err)
	}

	got, ok := l.Commitment(batch.ID)
	if !ok {
		t.Fatal("Commitment() reports batch missing after duplicate record")
	}
	if got != batch.Commitment {
		t.Errorf("Commitment() = %s, want the first recorded digest %s", got, batch.Commitment)
	}
}

func TestCommitmentLookup(t *testing.T) {
	l := New()
	if _, ok := l.Commitment(uuid.New()); ok {
		t.Error("Commitment() found an entry in an empty ledger")
	}

	batch := sealedBatch("tx-a")
	if err := l.Record(batch.ID, batch.Commitment); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	got, ok := l.Commitment(batch.ID)
	if !ok || got != batch.Commitment {
		t.Errorf("Commitment() = (%s, %v), want (%s, true)", got, ok, batch.Commitment)
	}
}

func TestConcurrentRecords(t *testing.T) {
	l := New()
	const n = 64

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := sealedBatch("tx")
			if err := l.Record(b.ID, b.Commitment); err != nil {
				t.Errorf("Record() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if l.Len() != n {
		t.Errorf("Len() = %d, want %d", l.Len(), n)
	}
}

func TestConcurrentDuplicateRecords(t *testing.T) {
	l := New()
	batch := sealedBatch("tx-a")
	const n = 16

	var successes atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Record(batch.ID, batch.Commitment); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := successes.Load(); got != 1 {
		t.Errorf("concurrent Record() successes = %d, want exactly 1", got)
	}
}
