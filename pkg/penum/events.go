package penum

import (
	"time"

	"github.com/google/uuid"
)

// State represents the lifecycle state of an Ingress instance.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// CanStart reports whether Start() is valid from this state.
func (s State) CanStart() bool {
	return s == StateStopped || s == StateCrashed
}

// CanStop reports whether Stop() is valid from this state.
func (s State) CanStop() bool {
	return s == StateRunning || s == StateStarting
}

// IsRunning reports whether the instance is accepting submissions.
func (s State) IsRunning() bool {
	return s == StateRunning
}

// StateChangeEvent is emitted on lifecycle state transitions.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// BatchSealedEvent is emitted when the pending set is sealed into a batch.
type BatchSealedEvent struct {
	BatchID uuid.UUID
	Size    int

	// Commitment is the hex-encoded batch commitment, published before
	// the batch is forwarded anywhere.
	Commitment string
}

// ForwardSuccessEvent is emitted after a batch has been forwarded.
type ForwardSuccessEvent struct {
	BatchID uuid.UUID
	Size    int

	// RelaysAccepted is the number of relays that accepted the batch.
	RelaysAccepted int

	Duration time.Duration
}

// ForwardErrorEvent is emitted when a forward attempt fails outright.
type ForwardErrorEvent struct {
	BatchID uuid.UUID
	Error   error
	Size    int
}

// RevealRejectedEvent is emitted when a sealed batch fails commitment
// verification and is withheld from the relays.
type RevealRejectedEvent struct {
	BatchID uuid.UUID
	Error   error
}

// EventHandler receives notifications about ingress operations.
// Handlers are called synchronously from the pipeline goroutine and
// should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnBatchSealed(event BatchSealedEvent)
	OnForwardSuccess(event ForwardSuccessEvent)
	OnForwardError(event ForwardErrorEvent)
	OnRevealRejected(event RevealRejectedEvent)
}

// BaseEventHandler provides no-op implementations of all EventHandler
// methods. Embed it to implement only the events you care about.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)       {}
func (BaseEventHandler) OnBatchSealed(BatchSealedEvent)       {}
func (BaseEventHandler) OnForwardSuccess(ForwardSuccessEvent) {}
func (BaseEventHandler) OnForwardError(ForwardErrorEvent)     {}
func (BaseEventHandler) OnRevealRejected(RevealRejectedEvent) {}
