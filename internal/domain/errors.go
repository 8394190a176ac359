package domain

import "errors"

// Domain errors represent error conditions in the penum domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidEnvelope is returned when a submitted payload cannot form
	// a valid envelope (empty, or rejected by the configured validator).
	ErrInvalidEnvelope = errors.New("penum: invalid envelope")

	// ErrCommitmentNotFound is returned when a reveal names a batch that
	// was never committed. Treated as a hard failure, never as success.
	ErrCommitmentNotFound = errors.New("penum: commitment not found")

	// ErrCommitmentMismatch is returned when a revealed batch does not
	// reproduce its recorded commitment. Indicates tampering or corruption.
	ErrCommitmentMismatch = errors.New("penum: commitment mismatch")

	// ErrDuplicateCommitment is returned when a batch id is committed
	// twice. The first record always wins.
	ErrDuplicateCommitment = errors.New("penum: duplicate commitment")

	// ErrOverloaded is returned when load shedding rejects a submission.
	ErrOverloaded = errors.New("penum: service overloaded")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("penum: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("penum: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("penum: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("penum: invalid configuration")

	// ErrContextCanceled is returned when the operation context is canceled.
	ErrContextCanceled = errors.New("penum: context canceled")
)
