package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/penum-labs/penum-ingress/internal/adapters/audit"
	logAdapter "github.com/penum-labs/penum-ingress/internal/adapters/log"
	"github.com/penum-labs/penum-ingress/internal/adapters/metrics"
	"github.com/penum-labs/penum-ingress/internal/app"
	"github.com/penum-labs/penum-ingress/internal/batch"
	"github.com/penum-labs/penum-ingress/internal/domain"
	"github.com/penum-labs/penum-ingress/internal/ledger"
	"github.com/penum-labs/penum-ingress/internal/ports"
	"github.com/penum-labs/penum-ingress/internal/shuffle"
)

type fakeTransport struct {
	mu      sync.Mutex
	batches []*domain.Batch
}

func (f *fakeTransport) Forward(_ context.Context, b *domain.Batch) ([]ports.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, b)
	return []ports.Delivery{{Relay: "https://relay.test", Duration: time.Millisecond}}, nil
}

func (f *fakeTransport) Forwarded() []*domain.Batch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.Batch{}, f.batches...)
}

// serviceIngress adapts app.Service to the Ingress interface the way the
// public facade does.
type serviceIngress struct {
	service *app.Service
}

func (a serviceIngress) Submit(ctx context.Context, payload []byte) (uint64, error) {
	return a.service.Submit(ctx, payload)
}

func (a serviceIngress) Commitment(batchID uuid.UUID) (string, bool) {
	digest, ok := a.service.Commitment(batchID)
	if !ok {
		return "", false
	}
	return digest.String(), true
}

func newTestServer(t *testing.T, cfg Config, maxBatchSize int) (*httptest.Server, *fakeTransport) {
	t.Helper()

	transport := &fakeTransport{}
	acc := batch.NewAccumulator(maxBatchSize, time.Minute, shuffle.DerivedSeedPolicy{})
	service := app.NewService(
		app.ServiceConfig{PollInterval: time.Second},
		acc,
		ledger.New(),
		transport,
		metrics.Noop{},
		audit.Noop{},
		logAdapter.NewNoopLogger(),
		nil,
	)

	ts := httptest.NewServer(NewServer(cfg, serviceIngress{service}, logAdapter.NewNoopLogger()).Handler())
	t.Cleanup(ts.Close)
	return ts, transport
}

func postTx(t *testing.T, ts *httptest.Server, payload []byte) *http.Response {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"tx": base64.StdEncoding.EncodeToString(payload),
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(ts.URL+"/v1/transactions", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/transactions: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSubmitTransactionAccepted(t *testing.T) {
	ts, _ := newTestServer(t, Config{}, 10)

	for want := uint64(0); want < 3; want++ {
		resp := postTx(t, ts, []byte(fmt.Sprintf("tx-%d", want)))
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
		}
		var got submitResponse
		decodeJSON(t, resp, &got)
		if got.Seq != want {
			t.Errorf("seq = %d, want %d", got.Seq, want)
		}
		if got.Status != "accepted" {
			t.Errorf("status = %q, want %q", got.Status, "accepted")
		}
	}
}

func TestSubmitInvalidJSON(t *testing.T) {
	ts, _ := newTestServer(t, Config{}, 10)

	resp, err := http.Post(ts.URL+"/v1/transactions", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSubmitInvalidBase64(t *testing.T) {
	ts, _ := newTestServer(t, Config{}, 10)

	resp, err := http.Post(ts.URL+"/v1/transactions", "application/json",
		bytes.NewReader([]byte(`{"tx":"not-base64!!!"}`)))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestSubmitEmptyPayload(t *testing.T) {
	ts, _ := newTestServer(t, Config{}, 10)

	resp := postTx(t, ts, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	var got errorResponse
	decodeJSON(t, resp, &got)
	if got.Error == "" {
		t.Error("error message missing from response")
	}
}

func TestSubmitOctetStream(t *testing.T) {
	ts, transport := newTestServer(t, Config{}, 1)

	raw := []byte{0x02, 0xF8, 0x6F, 0x01, 0x0A}
	resp, err := http.Post(ts.URL+"/v1/transactions", "application/octet-stream", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	forwarded := transport.Forwarded()
	if len(forwarded) != 1 {
		t.Fatalf("forwarded %d batches, want 1", len(forwarded))
	}
	if !bytes.Equal(forwarded[0].Envelopes[0].Payload, raw) {
		t.Errorf("payload = %x, want %x", forwarded[0].Envelopes[0].Payload, raw)
	}
}

func TestCommitmentPublishedAfterSeal(t *testing.T) {
	ts, transport := newTestServer(t, Config{}, 2)

	postTx(t, ts, []byte("tx-a")).Body.Close()
	postTx(t, ts, []byte("tx-b")).Body.Close()

	forwarded := transport.Forwarded()
	if len(forwarded) != 1 {
		t.Fatalf("forwarded %d batches, want 1", len(forwarded))
	}
	sealed := forwarded[0]

	resp, err := http.Get(ts.URL + "/v1/batches/" + sealed.ID.String() + "/commitment")
	if err != nil {
		t.Fatalf("GET commitment: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var got commitmentResponse
	decodeJSON(t, resp, &got)
	if got.BatchID != sealed.ID.String() {
		t.Errorf("batch_id = %q, want %q", got.BatchID, sealed.ID)
	}
	if got.Commitment != sealed.Commitment.String() {
		t.Errorf("commitment = %q, want %q", got.Commitment, sealed.Commitment)
	}
}

func TestCommitmentUnknownBatch(t *testing.T) {
	ts, _ := newTestServer(t, Config{}, 10)

	resp, err := http.Get(ts.URL + "/v1/batches/" + uuid.NewString() + "/commitment")
	if err != nil {
		t.Fatalf("GET commitment: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestCommitmentInvalidBatchID(t *testing.T) {
	ts, _ := newTestServer(t, Config{}, 10)

	resp, err := http.Get(ts.URL + "/v1/batches/not-a-uuid/commitment")
	if err != nil {
		t.Fatalf("GET commitment: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, Config{}, 10)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestVersion(t *testing.T) {
	ts, _ := newTestServer(t, Config{Version: "1.2.3"}, 10)

	resp, err := http.Get(ts.URL + "/version")
	if err != nil {
		t.Fatalf("GET /version: %v", err)
	}
	var got map[string]string
	decodeJSON(t, resp, &got)
	if got["version"] != "1.2.3" {
		t.Errorf("version = %q, want %q", got["version"], "1.2.3")
	}
	if got["service"] != "penum-ingress" {
		t.Errorf("service = %q, want %q", got["service"], "penum-ingress")
	}
}

func TestRateLimitSheds(t *testing.T) {
	ts, _ := newTestServer(t, Config{RequestsPerSecond: 1, Burst: 1}, 100)

	rejected := 0
	for i := 0; i < 5; i++ {
		resp := postTx(t, ts, []byte(fmt.Sprintf("tx-%d", i)))
		if resp.StatusCode == http.StatusTooManyRequests {
			rejected++
		}
		resp.Body.Close()
	}
	if rejected == 0 {
		t.Error("no request was rate limited")
	}
}

func TestBodyLimitRejectsOversizedRequest(t *testing.T) {
	ts, _ := newTestServer(t, Config{MaxBodyBytes: 64}, 10)

	resp := postTx(t, ts, bytes.Repeat([]byte{0xAB}, 256))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
}
