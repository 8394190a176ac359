// Package commitment implements the batch commitment scheme.
//
// A commitment binds a batch to its payload set before the batch is
// disclosed: SHA-256 over the sorted per-payload digests plus a random
// nonce. Sorting makes the digest a function of the set alone, so the
// permuted forwarding order never affects verification. The nonce prevents
// dictionary attacks against batches with few or guessable payloads.
package commitment

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/penum-labs/penum-ingress/internal/domain"
)

// Compute derives the commitment for a set of envelopes and a nonce.
//
// Each payload is hashed with SHA-256, the digests are sorted
// lexicographically and concatenated, the nonce is appended, and the result
// is hashed again. Every permutation of the same envelopes commits
// identically.
func Compute(envelopes []domain.Envelope, nonce domain.Nonce) domain.Digest {
	leaves := make([][]byte, len(envelopes))
	for i, e := range envelopes {
		sum := sha256.Sum256(e.Payload)
		leaves[i] = sum[:]
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i], leaves[j]) < 0
	})

	h := sha256.New()
	for _, leaf := range leaves {
		h.Write(leaf)
	}
	h.Write(nonce[:])

	var d domain.Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Verify reports whether envelopes and nonce reproduce the claimed digest.
func Verify(envelopes []domain.Envelope, nonce domain.Nonce, claimed domain.Digest) bool {
	return Compute(envelopes, nonce) == claimed
}

// NewNonce returns a fresh nonce from the operating system CSPRNG.
func NewNonce() (domain.Nonce, error) {
	var n domain.Nonce
	if _, err := rand.Read(n[:]); err != nil {
		return domain.Nonce{}, fmt.Errorf("generate nonce: %w", err)
	}
	return n, nil
}
