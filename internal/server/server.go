// Package server exposes the ingress over HTTP. Transactions are
// submitted on /v1/transactions and sealed-batch commitments are
// published on /v1/batches/{batchID}/commitment so that third parties
// can verify reveals independently.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/penum-labs/penum-ingress/internal/ports"
)

// Ingress is the part of the pipeline the API exposes.
type Ingress interface {
	// Submit accepts one transaction payload and returns its arrival
	// sequence number.
	Submit(ctx context.Context, payload []byte) (uint64, error)

	// Commitment returns the hex-encoded commitment recorded for a
	// sealed batch.
	Commitment(batchID uuid.UUID) (string, bool)
}

const (
	// DefaultMaxBodyBytes caps the request body for submissions. A raw
	// signed transaction is far below this even with calldata-heavy
	// payloads.
	DefaultMaxBodyBytes = 1 << 20

	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 120 * time.Second

	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Config holds the HTTP API listener configuration.
type Config struct {
	Host string
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RequestsPerSecond caps submissions across all clients.
	// Zero or negative disables rate limiting.
	RequestsPerSecond int
	Burst             int

	// MaxBodyBytes caps the request body size. Zero or negative falls
	// back to DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// Version is reported on /version.
	Version string
}

// Server wraps the chi router and the ingress pipeline.
type Server struct {
	config  Config
	ingress Ingress
	logger  ports.Logger
	router  *chi.Mux
}

// NewServer creates a server around the given ingress.
func NewServer(cfg Config, ingress Ingress, logger ports.Logger) *Server {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		config:  cfg,
		ingress: ingress,
		logger:  logger,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler for embedding or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(requestTimeout))
	s.router.Use(bodyLimit(s.config.MaxBodyBytes))
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/version", s.handleVersion)

	s.router.Route("/v1", func(r chi.Router) {
		r.Use(rateLimit(s.config.RequestsPerSecond, s.config.Burst))
		r.Post("/transactions", s.handleSubmit)
		r.Get("/batches/{batchID}/commitment", s.handleCommitment)
	})
}

// Start runs the listener until the context is canceled, then shuts the
// server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("ingress API listening", ports.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error", ports.Err(err))
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("HTTP server shutdown complete")
	return nil
}

// bodyLimit rejects request bodies larger than maxBytes.
func bodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimit caps requests per second across all clients. Disabled when
// requestsPerSecond <= 0.
func rateLimit(requestsPerSecond, burst int) func(http.Handler) http.Handler {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	if burst <= 0 {
		burst = requestsPerSecond
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				respondError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
