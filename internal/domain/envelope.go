package domain

import "time"

// EnvelopeVersion is the current envelope format version. Every accepted
// envelope carries it so future format changes can coexist in flight.
const EnvelopeVersion uint32 = 1

// Envelope wraps a single raw transaction payload accepted for batching.
// It is the atomic unit the accumulator collects: created once at
// acceptance, owned by the pending set until sealing, then owned by exactly
// one batch. Never mutated after creation.
type Envelope struct {
	// Payload is the raw transaction bytes. Always non-empty.
	Payload []byte

	// Seq is the arrival sequence number assigned at acceptance,
	// strictly increasing for the lifetime of an accumulator.
	Seq uint64

	// ReceivedAt is when the payload was accepted.
	ReceivedAt time.Time

	// Version is the envelope format version (currently EnvelopeVersion).
	Version uint32
}
