// Package penum provides an embeddable privacy-preserving transaction ingress.
//
// Penum accumulates submitted transactions into fixed-size or time-bounded
// batches, publishes a cryptographic commitment to each batch before its
// contents are disclosed, shuffles the batch to break the arrival order, and
// forwards it to the configured relays. It can be used as a standalone daemon
// or embedded as a library in other Go programs.
//
// # Basic Usage
//
// To embed penum in your application:
//
//	cfg := penum.Config{
//	    Relays:  []string{"https://relay.example.com"},
//	    AuthKey: "your-api-key",
//	}
//
//	ingress, err := penum.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := ingress.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	seq, err := ingress.Submit(ctx, rawTx)
//
//	// ... run until shutdown signal ...
//
//	if err := ingress.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Configuration
//
// Create a [Config] with at minimum one relay URL. All other fields have
// sensible defaults set via [Config.SetDefaults].
//
// # Event Handling
//
// To receive notifications about pipeline operations, implement [EventHandler]
// and pass it via [WithEventHandler]:
//
//	handler := &myEventHandler{}
//	ingress, err := penum.New(cfg, penum.WithEventHandler(handler))
//
// Events are called synchronously from the batching goroutine. Implementations
// should return quickly to avoid blocking the pipeline.
//
// # Dependency Injection
//
// For testing, you can inject custom implementations of external dependencies:
//
//	ingress, err := penum.New(cfg,
//	    penum.WithHTTPClient(mockClient),
//	    penum.WithLogger(customLogger),
//	)
//
// # Lifecycle States
//
// An Ingress instance can be in one of five states: [StateStopped],
// [StateStarting], [StateRunning], [StateStopping], or [StateCrashed]. Use
// [Ingress.Status] to query the current state.
//
// # Plugins and Retention
//
// Penum supports optional plugins for extended functionality:
//
//	import "github.com/penum-labs/penum-ingress/plugins/relaywatcher"
//
//	ingress, err := penum.New(cfg,
//	    relaywatcher.WithRelayWatcher(relaywatcher.DefaultConfig()),
//	    penum.WithLoadShedding(penum.DefaultLoadSheddingConfig()),
//	    penum.WithAuditRetention(penum.DefaultAuditRetentionConfig()),
//	)
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// Use [ModuleVersions] to get versions of all sub-modules and [CompatibilityMatrix]
// to check minimum compatible versions. See version.go for details.
package penum
