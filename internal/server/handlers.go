package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/penum-labs/penum-ingress/internal/domain"
	"github.com/penum-labs/penum-ingress/internal/ports"
)

type submitRequest struct {
	// Tx is the raw signed transaction, base64-encoded.
	Tx string `json:"tx"`
}

type submitResponse struct {
	Seq    uint64 `json:"seq"`
	Status string `json:"status"`
}

type commitmentResponse struct {
	BatchID    string `json:"batch_id"`
	Commitment string `json:"commitment"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	seq, err := s.ingress.Submit(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidEnvelope):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrOverloaded):
			respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.logger.Error("submission failed", ports.Err(err))
			respondError(w, http.StatusInternalServerError, "submission failed")
		}
		return
	}

	respondJSON(w, http.StatusAccepted, submitResponse{Seq: seq, Status: "accepted"})
}

// decodePayload extracts the raw transaction from the request body. JSON
// bodies carry it base64-encoded in the tx field; octet-stream bodies are
// the transaction bytes as-is.
func decodePayload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/octet-stream" {
		return io.ReadAll(r.Body)
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, errors.New("invalid request body")
	}
	payload, err := base64.StdEncoding.DecodeString(req.Tx)
	if err != nil {
		return nil, errors.New("tx is not valid base64")
	}
	return payload, nil
}

func (s *Server) handleCommitment(w http.ResponseWriter, r *http.Request) {
	batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	commitment, ok := s.ingress.Commitment(batchID)
	if !ok {
		respondError(w, http.StatusNotFound, "commitment not found")
		return
	}

	respondJSON(w, http.StatusOK, commitmentResponse{
		BatchID:    batchID.String(),
		Commitment: commitment,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "penum-ingress",
		"version": s.config.Version,
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}
