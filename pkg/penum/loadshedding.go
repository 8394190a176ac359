package penum

import (
	"runtime"
	"sync"

	"github.com/penum-labs/penum-ingress/internal/ports"
)

// LoadSheddingConfig holds configuration options for submission load
// shedding. When enabled, the ingress rejects new submissions while the
// process is under heavy load, so batches already accepted keep their
// sealing and forwarding latency.
type LoadSheddingConfig struct {
	// Enabled controls whether load shedding is active. Default: false.
	Enabled bool

	// LoadThreshold is the approximate load fraction (0.0-1.0) above
	// which submissions are rejected. Default: 0.85.
	LoadThreshold float64
}

// DefaultLoadSheddingConfig returns a LoadSheddingConfig with sensible defaults.
func DefaultLoadSheddingConfig() LoadSheddingConfig {
	return LoadSheddingConfig{
		Enabled:       true,
		LoadThreshold: 0.85,
	}
}

// WithLoadShedding enables submission load shedding with the specified
// configuration. Rejected submissions fail with ErrOverloaded.
//
// Usage:
//
//	ing, err := penum.New(cfg,
//	    penum.WithLoadShedding(penum.LoadSheddingConfig{
//	        Enabled:       true,
//	        LoadThreshold: 0.90,
//	    }),
//	)
func WithLoadShedding(cfg LoadSheddingConfig) Option {
	if !cfg.Enabled {
		return func(o *options) {} // No-op if not enabled
	}

	// Apply defaults for zero values
	if cfg.LoadThreshold <= 0 {
		cfg.LoadThreshold = 0.85
	}

	return func(o *options) {
		o.loadSheddingConfig = &cfg
	}
}

// loadGate manages load shedding checks.
type loadGate struct {
	mu sync.RWMutex

	threshold float64
	logger    ports.Logger
}

func newLoadGate(cfg LoadSheddingConfig, logger ports.Logger) *loadGate {
	return &loadGate{
		threshold: cfg.LoadThreshold,
		logger:    logger,
	}
}

// goroutinesPerCPUAtFullLoad is the heuristic for mapping goroutine count
// to CPU load. 12 goroutines per CPU is treated as 100% load.
// This is a rough heuristic; actual CPU usage requires OS-level metrics.
const goroutinesPerCPUAtFullLoad = 12.0

// OK returns true if system load allows accepting a submission.
// Uses goroutine count as a proxy for system load.
func (g *loadGate) OK() bool {
	g.mu.RLock()
	threshold := g.threshold
	logger := g.logger
	g.mu.RUnlock()

	numGoroutines := runtime.NumGoroutine()
	numCPU := runtime.NumCPU()

	// Guard against division by zero (can happen in restricted containers)
	if numCPU <= 0 {
		numCPU = 1
	}

	loadFactor := float64(numGoroutines) / float64(numCPU)

	approxLoad := loadFactor / goroutinesPerCPUAtFullLoad
	if approxLoad > 1.0 {
		approxLoad = 1.0
	}

	if approxLoad > threshold {
		if logger != nil {
			logger.Debug("load gate: high system load, rejecting submission",
				ports.Int("goroutines", numGoroutines),
				ports.Int("cpus", numCPU),
				ports.Float64("approx_load", approxLoad),
				ports.Float64("threshold", threshold),
			)
		}
		return false
	}

	return true
}
