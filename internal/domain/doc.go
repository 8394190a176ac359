// Package domain contains the core domain entities and value objects for
// penum-ingress.
//
// This package represents the innermost layer of the Clean Architecture. It
// has no dependencies on infrastructure concerns (HTTP, logging, clocks) and
// contains only pure business data and invariants.
//
// # Entities
//
//   - [Envelope]: A single accepted transaction payload with its arrival sequence
//   - [Batch]: A sealed, permuted set of envelopes bound to one commitment
//   - [Digest] / [Nonce]: 32-byte commitment values with hex encodings
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
