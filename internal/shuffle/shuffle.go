// Package shuffle implements the deterministic batch permutation.
//
// The permutation breaks the arrival-order correlation between submitted
// transactions and forwarded batches: given the same seed the shuffle is
// fully reproducible, so a verifier holding the seed can reconstruct the
// forwarding order, while an observer without it sees a uniformly random
// one. Randomness comes from SHA-256 over the seed and a block counter,
// with rejection sampling to keep every permutation equally likely.
package shuffle

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/penum-labs/penum-ingress/internal/domain"
)

// Permute returns the envelopes in the order determined by the seed.
// The input slice is not modified.
func Permute(envelopes []domain.Envelope, seed [32]byte) []domain.Envelope {
	out := append([]domain.Envelope(nil), envelopes...)
	g := newGenerator(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := g.uniform(uint64(i + 1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// generator produces a deterministic stream of 64-bit words from a seed.
// Block i is sha256(seed || counter_le); words are consumed left to right.
type generator struct {
	seed    [32]byte
	counter uint64
	block   [sha256.Size]byte
	off     int
}

func newGenerator(seed [32]byte) *generator {
	return &generator{seed: seed, off: sha256.Size}
}

func (g *generator) next64() uint64 {
	if g.off == sha256.Size {
		var buf [40]byte
		copy(buf[:32], g.seed[:])
		binary.LittleEndian.PutUint64(buf[32:], g.counter)
		g.block = sha256.Sum256(buf[:])
		g.counter++
		g.off = 0
	}
	v := binary.LittleEndian.Uint64(g.block[g.off : g.off+8])
	g.off += 8
	return v
}

// uniform returns a word in [0, n) without modulo bias. Words below
// 2^64 mod n are rejected so the accepted range divides evenly by n.
func (g *generator) uniform(n uint64) uint64 {
	min := -n % n
	for {
		if v := g.next64(); v >= min {
			return v % n
		}
	}
}
