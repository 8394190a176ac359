package domain

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// Batch is a sealed set of envelopes bound to a single commitment.
// Envelopes are stored in forwarding order, i.e. after permutation. The
// commitment covers the unordered payload set plus the nonce, so the stored
// order never affects verification.
type Batch struct {
	// ID uniquely identifies the batch.
	ID uuid.UUID

	// Envelopes holds the batch contents in forwarding order.
	Envelopes []Envelope

	// Nonce is the random value bound into the commitment, disclosed
	// only at reveal time.
	Nonce Nonce

	// Commitment is the digest recorded before the batch leaves the node.
	Commitment Digest

	// Seed is the permutation seed that produced the forwarding order.
	Seed [DigestSize]byte

	// SealedAt is when the batch was sealed.
	SealedAt time.Time
}

// Size returns the number of envelopes in the batch.
func (b *Batch) Size() int {
	return len(b.Envelopes)
}

// Payloads returns the raw transaction payloads in forwarding order.
func (b *Batch) Payloads() [][]byte {
	out := make([][]byte, len(b.Envelopes))
	for i, e := range b.Envelopes {
		out[i] = e.Payload
	}
	return out
}

// Reveal is the wire form of a batch disclosure. Payloads travel base64
// encoded in forwarding order; nonce and commitment travel hex encoded so a
// recipient can re-derive the commitment independently.
type Reveal struct {
	BatchID      string   `json:"batch_id"`
	SealedAt     int64    `json:"sealed_at"`
	Nonce        string   `json:"nonce"`
	Commitment   string   `json:"commitment"`
	Transactions []string `json:"transactions"`
}

// ToReveal converts a batch to its wire form.
func (b *Batch) ToReveal() Reveal {
	txs := make([]string, len(b.Envelopes))
	for i, e := range b.Envelopes {
		txs[i] = base64.StdEncoding.EncodeToString(e.Payload)
	}
	return Reveal{
		BatchID:      b.ID.String(),
		SealedAt:     b.SealedAt.UnixNano(),
		Nonce:        b.Nonce.String(),
		Commitment:   b.Commitment.String(),
		Transactions: txs,
	}
}
