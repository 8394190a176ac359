package domain

import (
	"encoding/hex"
	"fmt"
)

// DigestSize is the byte length of commitment digests and nonces.
const DigestSize = 32

// Digest is a 32-byte SHA-256 commitment digest.
type Digest [DigestSize]byte

// String returns the digest hex encoded.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// DigestFromHex parses a hex encoded digest.
func DigestFromHex(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("decode digest: %w", err)
	}
	if len(b) != DigestSize {
		return d, fmt.Errorf("decode digest: got %d bytes, want %d", len(b), DigestSize)
	}
	copy(d[:], b)
	return d, nil
}

// Nonce is the 32-byte random value bound into a commitment. It stays
// private until the batch is revealed.
type Nonce [DigestSize]byte

// String returns the nonce hex encoded.
func (n Nonce) String() string {
	return hex.EncodeToString(n[:])
}

// NonceFromHex parses a hex encoded nonce.
func NonceFromHex(s string) (Nonce, error) {
	var n Nonce
	b, err := hex.DecodeString(s)
	if err != nil {
		return n, fmt.Errorf("decode nonce: %w", err)
	}
	if len(b) != DigestSize {
		return n, fmt.Errorf("decode nonce: got %d bytes, want %d", len(b), DigestSize)
	}
	copy(n[:], b)
	return n, nil
}
