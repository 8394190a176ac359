package ports

import (
	"context"
	"time"

	"github.com/penum-labs/penum-ingress/internal/domain"
)

// Transport discloses sealed batches to downstream relays.
// Implementations handle serialization, HTTP communication, authentication,
// and retries. The application core never retries a forward itself.
type Transport interface {
	// Forward discloses a sealed batch to every configured relay and
	// returns one delivery result per relay. The error is non-nil only
	// when the forward could not be attempted at all; per-relay failures
	// are reported in the deliveries.
	Forward(ctx context.Context, batch *domain.Batch) ([]Delivery, error)
}

// Delivery is the outcome of disclosing a batch to a single relay.
type Delivery struct {
	// Relay is the relay endpoint URL.
	Relay string

	// Duration is how long the disclosure attempt took, retries included.
	Duration time.Duration

	// Err is nil when the relay accepted the batch.
	Err error
}

// Accepted reports whether the relay accepted the batch.
func (d Delivery) Accepted() bool {
	return d.Err == nil
}
