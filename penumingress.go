// Package penumingress provides a privacy-preserving transaction
// ingress for Ethereum relays.
//
// Example usage:
//
//	cfg := penumingress.DefaultConfig()
//	cfg.Relays = []string{"https://relay.flashbots.net"}
//	cfg.AuthKey = "your-api-key"
//	if err := penumingress.Run(context.Background(), cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Run is the one-shot entry point. For lifecycle control, event
// handlers, and plugins, use the pkg/penum package directly.
package penumingress

import (
	"context"
	"errors"
	"time"

	"github.com/penum-labs/penum-ingress/pkg/penum"
)

// Config holds the configuration for the transaction ingress.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = penum.Config

// Option customizes the ingress created by Run.
type Option = penum.Option

// Run starts the transaction ingress with the given configuration.
// It blocks until the context is cancelled or the ingress worker
// crashes, then shuts down gracefully, flushing any pending batch.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	ing, err := penum.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := ing.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ing.Stop()
		case <-ticker.C:
			if ing.Status() == penum.StateCrashed {
				return errors.New("ingress worker crashed")
			}
		}
	}
}

// DefaultConfig returns a Config with sensible default values.
// At minimum, set AuthKey before calling Run when your relays require
// authentication.
func DefaultConfig() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// DefaultRelays are the endpoints sealed batches are forwarded to when
// no relays are configured.
var DefaultRelays = penum.DefaultRelays
