package penum

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/penum-labs/penum-ingress/internal/adapters/audit"
	"github.com/penum-labs/penum-ingress/internal/adapters/ethtx"
	"github.com/penum-labs/penum-ingress/internal/adapters/fs"
	httpAdapter "github.com/penum-labs/penum-ingress/internal/adapters/http"
	logAdapter "github.com/penum-labs/penum-ingress/internal/adapters/log"
	"github.com/penum-labs/penum-ingress/internal/adapters/metrics"
	"github.com/penum-labs/penum-ingress/internal/app"
	"github.com/penum-labs/penum-ingress/internal/batch"
	"github.com/penum-labs/penum-ingress/internal/domain"
	"github.com/penum-labs/penum-ingress/internal/ledger"
	"github.com/penum-labs/penum-ingress/internal/ports"
	"github.com/penum-labs/penum-ingress/internal/shuffle"
)

// Snapshot is a point-in-time view of pipeline counters.
type Snapshot = metrics.Snapshot

// RelayAcceptance summarizes per-relay delivery outcomes.
type RelayAcceptance = metrics.RelayAcceptance

// Ingress is an embeddable privacy-preserving transaction ingress.
// It accumulates submitted transactions into batches, commits to each
// batch before disclosure, shuffles it, and forwards it to the
// configured relays. Use New() to create an instance, then Start() to
// begin the batching loop.
type Ingress struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	service   *app.Service
	logger    ports.Logger

	// collector is nil when a custom metrics sink is injected.
	collector *metrics.Collector

	// relayCtl is nil when a custom transport without runtime relay
	// control is injected.
	relayCtl RelayController

	// auditFile is nil unless Config.AuditDir is set.
	auditFile *fs.AuditLog

	// Retention runner (config-based, not a plugin)
	retention *retentionRunner

	// Load gate (config-based, not a plugin)
	gate *loadGate

	// Plugin support
	plugins []Plugin

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Ingress instance with the given configuration.
// The instance is created in StateStopped; call Start() to begin the
// batching loop. Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Ingress, error) {
	// Set defaults
	cfg.SetDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Validate module version compatibility
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	// Apply options
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	o := defaultOptions(httpClient)
	for _, opt := range opts {
		opt(&o)
	}

	// Create logger
	var logger ports.Logger
	if o.logger != nil {
		logger = o.logger
	} else {
		logger = logAdapter.NewNoopLogger()
	}

	// Create event emitter wrapper
	var emitter eventEmitterWrapper
	if o.eventHandler != nil {
		emitter = eventEmitterWrapper{handler: o.eventHandler}
	}

	// Create lifecycle manager
	lifecycle := app.NewLifecycle(logger, &emitter)

	// Resolve the permutation seed policy
	seedPolicy := o.seedPolicy
	if seedPolicy == nil {
		policy, err := shuffle.PolicyByName(cfg.SeedPolicy)
		if err != nil {
			return nil, err
		}
		seedPolicy = policy
	}

	// Resolve the payload validator
	validator := o.validator
	if validator == nil && cfg.StrictValidation {
		validator = ethtx.New()
	}

	// Create the accumulator
	accumulator := batch.NewAccumulator(cfg.MaxBatchSize, cfg.BatchTimeWindow, seedPolicy)
	if validator != nil {
		accumulator = accumulator.WithValidator(validator)
	}
	if o.clock != nil {
		accumulator = accumulator.WithClock(o.clock)
	}

	// Create the transport
	transport := o.transport
	if transport == nil {
		transport = httpAdapter.NewRelayTransport(o.httpClient, logger, cfg.Relays, cfg.AuthKey)
	}
	relayCtl, _ := transport.(RelayController)

	// Create the metrics sink
	var collector *metrics.Collector
	metricsSink := o.metricsSink
	if metricsSink == nil {
		collector = metrics.NewCollector()
		metricsSink = collector
	}

	// Create the audit sink chain
	auditSink := o.auditSink
	if auditSink == nil {
		auditSink = audit.NewLogSink(logger)
	}
	var auditFile *fs.AuditLog
	if cfg.AuditDir != "" {
		f, err := fs.NewAuditLog(cfg.AuditDir, logger)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		auditFile = f
		auditSink = audit.Multi{auditSink, auditFile}
	}

	// Create the pipeline service
	service := app.NewService(
		app.ServiceConfig{PollInterval: cfg.PollInterval},
		accumulator,
		ledger.New(),
		transport,
		metricsSink,
		auditSink,
		logger,
		&emitter,
	)

	// Create retention runner if configured
	var retention *retentionRunner
	if o.retentionConfig != nil && auditFile != nil {
		retention = newRetentionRunner(*o.retentionConfig, auditFile, logger)
	}

	// Create load gate if configured
	var gate *loadGate
	if o.loadSheddingConfig != nil && o.loadSheddingConfig.Enabled {
		gate = newLoadGate(*o.loadSheddingConfig, logger)
	}

	return &Ingress{
		config:    cfg,
		opts:      o,
		lifecycle: lifecycle,
		service:   service,
		logger:    logger,
		collector: collector,
		relayCtl:  relayCtl,
		auditFile: auditFile,
		retention: retention,
		gate:      gate,
		plugins:   o.plugins,
	}, nil
}

// Start begins the batching loop in the background.
// Returns immediately after starting the pipeline goroutine.
// Returns an error if already running or if startup fails.
// The provided context is used for the lifetime of the batching loop.
func (i *Ingress) Start(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}

	// Transition to starting
	if err := i.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	// Create cancellable context
	runCtx, cancel := context.WithCancel(ctx)
	i.ctx = runCtx
	i.cancel = cancel
	i.lifecycle.SetCancel(cancel)

	// Initialize plugins
	pluginCfg := PluginConfig{
		Relays:   append([]string(nil), i.config.Relays...),
		AuthKey:  i.config.AuthKey,
		AuditDir: i.config.AuditDir,
		Logger:   i.logger,
		Relay:    i.relayCtl,
	}
	for _, p := range i.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			i.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			_ = i.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		i.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	// Start retention runner if configured
	if i.retention != nil {
		i.retention.start(runCtx)
	}

	// Log load shedding status
	if i.gate != nil {
		i.logger.Info("load shedding enabled")
	}

	// Start the pipeline in a goroutine
	i.lifecycle.AddWorker()
	go func() {
		defer i.lifecycle.WorkerDone()

		// Transition to running
		if err := i.lifecycle.TransitionTo(app.StateRunning, "pipeline starting"); err != nil {
			i.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		// Run the batching loop
		err := i.service.Run(runCtx)

		// Handle completion
		if err != nil && err != context.Canceled {
			i.logger.Error("pipeline error", ports.Err(err))
			_ = i.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

// Stop gracefully shuts down the ingress.
// Pending envelopes are sealed and forwarded before exit.
// Waits up to 30 seconds before forcing shutdown.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (i *Ingress) Stop() error {
	i.mu.Lock()

	if !i.lifecycle.CanStop() {
		i.mu.Unlock()
		return domain.ErrNotRunning
	}

	// Transition to stopping
	if err := i.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		i.mu.Unlock()
		return err
	}

	// Cancel the context
	if i.cancel != nil {
		i.cancel()
	}

	i.mu.Unlock()

	// Wait for workers with timeout
	err := i.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	// Stop retention runner
	if i.retention != nil {
		i.retention.stop()
	}

	// Shutdown plugins (in reverse order)
	shutdownCtx := context.Background()
	for j := len(i.plugins) - 1; j >= 0; j-- {
		p := i.plugins[j]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			i.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(shutdownErr))
		} else {
			i.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}

	// Transition to stopped
	if err != nil {
		_ = i.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = i.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (i *Ingress) Status() State {
	return convertState(i.lifecycle.State())
}

// Submit accepts a single transaction payload for batching.
// Returns the arrival sequence number assigned to the envelope. When
// this submission fills the current batch, the batch is sealed,
// committed, and forwarded before Submit returns.
// Fails with ErrNotRunning unless the instance has been started, and
// with ErrOverloaded when load shedding rejects the submission.
func (i *Ingress) Submit(ctx context.Context, payload []byte) (uint64, error) {
	st := i.lifecycle.State()
	if st != app.StateRunning && st != app.StateStarting {
		return 0, domain.ErrNotRunning
	}
	if i.gate != nil && !i.gate.OK() {
		return 0, domain.ErrOverloaded
	}
	return i.service.Submit(ctx, payload)
}

// Commitment returns the hex-encoded commitment recorded for a sealed
// batch, or false if the batch id is unknown.
func (i *Ingress) Commitment(batchID uuid.UUID) (string, bool) {
	digest, ok := i.service.Commitment(batchID)
	if !ok {
		return "", false
	}
	return digest.String(), true
}

// Pending returns the number of envelopes awaiting seal.
func (i *Ingress) Pending() int {
	return i.service.Pending()
}

// Flush seals and forwards whatever is pending, regardless of batch
// size or window age. Useful before a planned shutdown.
func (i *Ingress) Flush(ctx context.Context) error {
	return i.service.Flush(ctx)
}

// MetricsSnapshot returns current pipeline counters. The zero Snapshot
// is returned when a custom metrics sink is injected.
func (i *Ingress) MetricsSnapshot() Snapshot {
	if i.collector == nil {
		return Snapshot{}
	}
	return i.collector.Snapshot()
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnBatchSealed(batchID uuid.UUID, size int, commitment domain.Digest) {
	if e.handler == nil {
		return
	}
	e.handler.OnBatchSealed(BatchSealedEvent{
		BatchID:    batchID,
		Size:       size,
		Commitment: commitment.String(),
	})
}

func (e *eventEmitterWrapper) OnForwardSuccess(batchID uuid.UUID, size, accepted int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnForwardSuccess(ForwardSuccessEvent{
		BatchID:        batchID,
		Size:           size,
		RelaysAccepted: accepted,
		Duration:       duration,
	})
}

func (e *eventEmitterWrapper) OnForwardError(batchID uuid.UUID, err error, size int) {
	if e.handler == nil {
		return
	}
	e.handler.OnForwardError(ForwardErrorEvent{
		BatchID: batchID,
		Error:   err,
		Size:    size,
	})
}

func (e *eventEmitterWrapper) OnRevealRejected(batchID uuid.UUID, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnRevealRejected(RevealRejectedEvent{
		BatchID: batchID,
		Error:   err,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	versions := ModuleVersions()
	for name, minVersion := range CompatibilityMatrix() {
		if !isVersionCompatible(versions[name], minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, versions[name], minVersion)
		}
	}
	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	// Parse versions (simplified semver comparison)
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
