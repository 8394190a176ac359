package shuffle

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"
)

// Seed policy names accepted in configuration.
const (
	PolicyDerived = "derived"
	PolicySecret  = "secret"
)

// SeedPolicy produces the permutation seed for a sealing batch.
type SeedPolicy interface {
	// Seed returns the permutation seed for the given batch id.
	Seed(batchID uuid.UUID) ([32]byte, error)

	// Name identifies the policy in configuration and logs.
	Name() string
}

// DerivedSeedPolicy derives the seed by hashing the batch id.
//
// The seed is recomputable by anyone who learns the id, so the permutation
// decorrelates timing only; it holds no secrecy once the id is public.
// Use SecretSeedPolicy when the forwarding order itself must stay hidden
// until reveal.
type DerivedSeedPolicy struct{}

// Seed returns sha256 of the batch id bytes.
func (DerivedSeedPolicy) Seed(batchID uuid.UUID) ([32]byte, error) {
	return sha256.Sum256(batchID[:]), nil
}

// Name returns the configuration name of the policy.
func (DerivedSeedPolicy) Name() string { return PolicyDerived }

// SecretSeedPolicy draws a fresh random seed per batch from the operating
// system CSPRNG. The seed is carried on the batch and disclosed only at
// reveal, alongside the nonce.
type SecretSeedPolicy struct{}

// Seed returns 32 random bytes.
func (SecretSeedPolicy) Seed(uuid.UUID) ([32]byte, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return [32]byte{}, fmt.Errorf("generate seed: %w", err)
	}
	return seed, nil
}

// Name returns the configuration name of the policy.
func (SecretSeedPolicy) Name() string { return PolicySecret }

// PolicyByName returns the seed policy for a configuration name.
func PolicyByName(name string) (SeedPolicy, error) {
	switch name {
	case PolicyDerived, "":
		return DerivedSeedPolicy{}, nil
	case PolicySecret:
		return SecretSeedPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown seed policy %q", name)
	}
}
