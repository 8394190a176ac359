package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/penum-labs/penum-ingress/internal/adapters/log"
	"github.com/penum-labs/penum-ingress/internal/commitment"
	"github.com/penum-labs/penum-ingress/internal/domain"
)

func testBatch(t *testing.T, payloads ...string) *domain.Batch {
	t.Helper()
	envs := make([]domain.Envelope, len(payloads))
	for i, p := range payloads {
		envs[i] = domain.Envelope{
			Payload: []byte(p),
			Seq:     uint64(i),
			Version: domain.EnvelopeVersion,
		}
	}
	nonce, err := commitment.NewNonce()
	if err != nil {
		t.Fatalf("NewNonce() error = %v", err)
	}
	return &domain.Batch{
		ID:         uuid.New(),
		Envelopes:  envs,
		Nonce:      nonce,
		Commitment: commitment.Compute(envs, nonce),
		SealedAt:   time.Now(),
	}
}

func TestForwardDeliversToAllRelays(t *testing.T) {
	batch := testBatch(t, "tx-a", "tx-b")

	var hits [2]atomic.Int32
	servers := make([]*httptest.Server, 2)
	for i := range servers {
		i := i
		servers[i] = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits[i].Add(1)

			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if r.URL.Path != "/v1/batches" {
				t.Errorf("path = %s, want /v1/batches", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer secret" {
				t.Errorf("Authorization = %q, want Bearer secret", r.Header.Get("Authorization"))
			}
			if r.Header.Get("X-Penum-Batch-Id") != batch.ID.String() {
				t.Errorf("X-Penum-Batch-Id = %q, want %s", r.Header.Get("X-Penum-Batch-Id"), batch.ID)
			}

			var reveal domain.Reveal
			if err := json.NewDecoder(r.Body).Decode(&reveal); err != nil {
				t.Errorf("decode reveal: %v", err)
				return
			}
			if reveal.BatchID != batch.ID.String() {
				t.Errorf("reveal batch_id = %s, want %s", reveal.BatchID, batch.ID)
			}
			if len(reveal.Transactions) != 2 {
				t.Errorf("reveal transactions = %d, want 2", len(reveal.Transactions))
			}
			w.WriteHeader(http.StatusAccepted)
		}))
	}
	defer servers[0].Close()
	defer servers[1].Close()

	transport := NewRelayTransport(http.DefaultClient, log.NewNoopLogger(),
		[]string{servers[0].URL, servers[1].URL}, "secret")

	deliveries, err := transport.Forward(context.Background(), batch)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("deliveries = %d, want 2", len(deliveries))
	}
	for _, d := range deliveries {
		if !d.Accepted() {
			t.Errorf("delivery to %s rejected: %v", d.Relay, d.Err)
		}
		if d.Duration <= 0 {
			t.Errorf("delivery to %s has no duration", d.Relay)
		}
	}
	for i := range hits {
		if got := hits[i].Load(); got != 1 {
			t.Errorf("relay %d hit %d times, want 1", i, got)
		}
	}
}

// A recipient holding only the wire reveal must be able to reproduce the
// commitment independently.
func TestRevealIndependentlyVerifiable(t *testing.T) {
	batch := testBatch(t, "tx-a", "tx-b", "tx-c")

	received := make(chan domain.Reveal, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reveal domain.Reveal
		if err := json.NewDecoder(r.Body).Decode(&reveal); err != nil {
			t.Errorf("decode reveal: %v", err)
		}
		received <- reveal
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := NewRelayTransport(http.DefaultClient, log.NewNoopLogger(), []string{server.URL}, "")
	if _, err := transport.Forward(context.Background(), batch); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	reveal := <-received
	nonce, err := domain.NonceFromHex(reveal.Nonce)
	if err != nil {
		t.Fatalf("NonceFromHex() error = %v", err)
	}
	claimed, err := domain.DigestFromHex(reveal.Commitment)
	if err != nil {
		t.Fatalf("DigestFromHex() error = %v", err)
	}
	envs := make([]domain.Envelope, len(reveal.Transactions))
	for i, tx := range reveal.Transactions {
		payload, err := base64.StdEncoding.DecodeString(tx)
		if err != nil {
			t.Fatalf("decode transaction %d: %v", i, err)
		}
		envs[i] = domain.Envelope{Payload: payload}
	}

	if !commitment.Verify(envs, nonce, claimed) {
		t.Error("commitment not reproducible from the wire reveal")
	}
}

func TestForwardReportsPerRelayFailure(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer good.Close()

	var badHits atomic.Int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	transport := NewRelayTransport(http.DefaultClient, log.NewNoopLogger(),
		[]string{good.URL, bad.URL}, "").
		WithRetry(2, time.Millisecond, 2*time.Millisecond)

	deliveries, err := transport.Forward(context.Background(), testBatch(t, "tx"))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	byRelay := map[string]error{}
	for _, d := range deliveries {
		byRelay[d.Relay] = d.Err
	}
	if byRelay[good.URL] != nil {
		t.Errorf("healthy relay rejected: %v", byRelay[good.URL])
	}
	if byRelay[bad.URL] == nil {
		t.Error("failing relay reported as accepted")
	}
	if got := badHits.Load(); got != 2 {
		t.Errorf("failing relay hit %d times, want 2 (one retry)", got)
	}
}

func TestForwardDoesNotRetryFinalRejection(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	transport := NewRelayTransport(http.DefaultClient, log.NewNoopLogger(), []string{server.URL}, "").
		WithRetry(3, time.Millisecond, 2*time.Millisecond)

	deliveries, err := transport.Forward(context.Background(), testBatch(t, "tx"))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if deliveries[0].Err == nil {
		t.Error("400 response reported as accepted")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("relay hit %d times for a final rejection, want 1", got)
	}
}

func TestForwardRetriesRateLimit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := NewRelayTransport(http.DefaultClient, log.NewNoopLogger(), []string{server.URL}, "").
		WithRetry(3, time.Millisecond, 2*time.Millisecond)

	deliveries, err := transport.Forward(context.Background(), testBatch(t, "tx"))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if !deliveries[0].Accepted() {
		t.Errorf("delivery rejected after rate-limit retry: %v", deliveries[0].Err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("relay hit %d times, want 2", got)
	}
}

func TestForwardNoRelays(t *testing.T) {
	transport := NewRelayTransport(http.DefaultClient, log.NewNoopLogger(), nil, "")

	if _, err := transport.Forward(context.Background(), testBatch(t, "tx")); err == nil {
		t.Error("Forward() with no relays returned nil error")
	}
}

func TestSetRelays(t *testing.T) {
	var oldHits, newHits atomic.Int32
	oldServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		oldHits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer oldServer.Close()
	newServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		newHits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer newServer.Close()

	transport := NewRelayTransport(http.DefaultClient, log.NewNoopLogger(), []string{oldServer.URL}, "")
	transport.SetRelays([]string{newServer.URL})

	if _, err := transport.Forward(context.Background(), testBatch(t, "tx")); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if oldHits.Load() != 0 {
		t.Error("forward hit a relay that was removed")
	}
	if newHits.Load() != 1 {
		t.Errorf("new relay hit %d times, want 1", newHits.Load())
	}
}
