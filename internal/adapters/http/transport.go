package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/penum-labs/penum-ingress/internal/domain"
	"github.com/penum-labs/penum-ingress/internal/ports"
	"github.com/penum-labs/penum-ingress/pkg/lifecycle"
)

const batchesEndpoint = "/v1/batches"

// Retry configuration for a single relay delivery.
const (
	DefaultMaxAttempts    = 3
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 5 * time.Second
)

// RelayTransport implements ports.Transport by POSTing batch reveals to a
// set of relay endpoints concurrently. The relay set can be swapped at
// runtime; a forward in flight keeps the snapshot it started with.
type RelayTransport struct {
	client      ports.HTTPClient
	logger      ports.Logger
	authKey     string
	maxAttempts int
	boInitial   time.Duration
	boMax       time.Duration

	mu     sync.RWMutex
	relays []string
}

// NewRelayTransport creates a transport that forwards to the given relays.
func NewRelayTransport(client ports.HTTPClient, logger ports.Logger, relays []string, authKey string) *RelayTransport {
	return &RelayTransport{
		client:      client,
		logger:      logger,
		authKey:     authKey,
		maxAttempts: DefaultMaxAttempts,
		boInitial:   DefaultBackoffInitial,
		boMax:       DefaultBackoffMax,
		relays:      append([]string(nil), relays...),
	}
}

// WithRetry overrides the per-relay retry policy.
func (t *RelayTransport) WithRetry(maxAttempts int, initial, max time.Duration) *RelayTransport {
	t.maxAttempts = maxAttempts
	t.boInitial = initial
	t.boMax = max
	return t
}

// SetRelays replaces the relay set for subsequent forwards.
func (t *RelayTransport) SetRelays(relays []string) {
	t.mu.Lock()
	t.relays = append([]string(nil), relays...)
	t.mu.Unlock()
}

// Relays returns a copy of the current relay set.
func (t *RelayTransport) Relays() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.relays...)
}

// Forward discloses the batch to every relay concurrently and returns one
// delivery result per relay.
func (t *RelayTransport) Forward(ctx context.Context, batch *domain.Batch) ([]ports.Delivery, error) {
	relays := t.Relays()
	if len(relays) == 0 {
		return nil, errors.New("no relays configured")
	}

	body, err := json.Marshal(batch.ToReveal())
	if err != nil {
		return nil, fmt.Errorf("marshal batch reveal: %w", err)
	}

	deliveries := make([]ports.Delivery, len(relays))
	var wg sync.WaitGroup
	for i, relay := range relays {
		wg.Add(1)
		go func(i int, relay string) {
			defer wg.Done()
			start := time.Now()
			err := t.deliverWithRetry(ctx, relay, batch, body)
			deliveries[i] = ports.Delivery{
				Relay:    relay,
				Duration: time.Since(start),
				Err:      err,
			}
		}(i, relay)
	}
	wg.Wait()

	return deliveries, nil
}

// deliverWithRetry attempts one relay delivery, retrying transient
// failures with exponential backoff.
func (t *RelayTransport) deliverWithRetry(ctx context.Context, relay string, batch *domain.Batch, body []byte) error {
	bo := lifecycle.NewBackoff(t.boInitial, t.boMax)

	var lastErr error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = t.deliver(ctx, relay, batch, body)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == t.maxAttempts {
			break
		}

		t.logger.Warn("relay delivery failed, retrying",
			ports.String("relay", relay),
			ports.String("batch_id", batch.ID.String()),
			ports.Int("attempt", attempt),
			ports.Err(lastErr),
		)
		bo.Sleep()
	}
	return lastErr
}

// deliver performs a single POST of the batch reveal to one relay.
func (t *RelayTransport) deliver(ctx context.Context, relay string, batch *domain.Batch, body []byte) error {
	url := relay + batchesEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Penum-Batch-Id", batch.ID.String())
	if t.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.authKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: string(respBody)}
	}
	return nil
}

// statusError is a non-2xx relay response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.code, e.body)
}

// retryable reports whether a delivery error is worth another attempt.
// Rate limiting and server-side failures are; other rejections are final.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code/100 == 5
	}
	return true
}
