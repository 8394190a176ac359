package penum

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/penum-labs/penum-ingress/internal/adapters/fs"
	"github.com/penum-labs/penum-ingress/internal/ports"
)

// AuditRetentionConfig holds configuration options for automatic audit
// log retention. When enabled, the active audit log is rotated once the
// audit directory exceeds the high watermark and the oldest rotated logs
// are removed until the directory is back under the low watermark.
type AuditRetentionConfig struct {
	// Enabled controls whether retention is active. Default: false
	Enabled bool

	// CheckInterval is how often to check the audit directory size.
	// Default: 1 hour
	CheckInterval time.Duration

	// HighWatermark is the size in bytes above which retention begins.
	// Default: 256 MiB
	HighWatermark int64

	// LowWatermark is the target size in bytes after retention.
	// Default: 128 MiB
	LowWatermark int64
}

// DefaultAuditRetentionConfig returns an AuditRetentionConfig with
// sensible defaults.
func DefaultAuditRetentionConfig() AuditRetentionConfig {
	return AuditRetentionConfig{
		Enabled:       true,
		CheckInterval: time.Hour,
		HighWatermark: 256 << 20,
		LowWatermark:  128 << 20,
	}
}

// WithAuditRetention enables automatic audit log retention with the
// specified configuration. Has no effect unless Config.AuditDir is set.
//
// Usage:
//
//	ing, err := penum.New(cfg,
//	    penum.WithAuditRetention(penum.AuditRetentionConfig{
//	        Enabled:       true,
//	        HighWatermark: 1 << 30, // 1GB
//	        LowWatermark:  1 << 29, // 512MB
//	        CheckInterval: 1 * time.Hour,
//	    }),
//	)
func WithAuditRetention(cfg AuditRetentionConfig) Option {
	if !cfg.Enabled {
		return func(o *options) {} // No-op if not enabled
	}

	// Apply defaults for zero values
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}
	if cfg.HighWatermark <= 0 {
		cfg.HighWatermark = 256 << 20
	}
	if cfg.LowWatermark <= 0 {
		cfg.LowWatermark = 128 << 20
	}

	return func(o *options) {
		o.retentionConfig = &cfg
	}
}

// retentionRunner manages the audit retention goroutine.
type retentionRunner struct {
	checkInterval time.Duration
	highWatermark int64
	lowWatermark  int64

	auditLog *fs.AuditLog
	logger   ports.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func newRetentionRunner(cfg AuditRetentionConfig, auditLog *fs.AuditLog, logger ports.Logger) *retentionRunner {
	return &retentionRunner{
		checkInterval: cfg.CheckInterval,
		highWatermark: cfg.HighWatermark,
		lowWatermark:  cfg.LowWatermark,
		auditLog:      auditLog,
		logger:        logger,
	}
}

func (r *retentionRunner) start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.logger.Info("audit retention enabled")

	r.wg.Add(1)
	go r.retentionLoop(runCtx)
}

func (r *retentionRunner) stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *retentionRunner) retentionLoop(ctx context.Context) {
	defer r.wg.Done()

	// Run immediately on startup
	r.retainOnce(ctx)

	ticker := time.NewTicker(r.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.retainOnce(ctx)
		}
	}
}

func (r *retentionRunner) retainOnce(ctx context.Context) {
	dir := r.auditLog.Dir()

	curSize, err := auditDirSize(dir)
	if err != nil {
		r.logger.Error("audit retention: size check failed", ports.Err(err))
		return
	}
	if curSize <= r.highWatermark {
		return
	}

	// Rotate the active log so all prior events become prunable history.
	if _, err := r.auditLog.Rotate(); err != nil {
		r.logger.Error("audit retention: rotate failed", ports.Err(err))
		return
	}

	rotated, err := rotatedAuditLogs(dir)
	if err != nil {
		r.logger.Error("audit retention: list rotated logs failed", ports.Err(err))
		return
	}

	removed := int64(0)
	for _, f := range rotated {
		if ctx.Err() != nil {
			return
		}
		if curSize <= r.lowWatermark {
			break
		}
		if err := os.Remove(f.path); err != nil {
			r.logger.Error("audit retention: remove failed", ports.Err(err))
			continue
		}
		curSize -= f.size
		removed += f.size
	}

	if removed > 0 {
		r.logger.Info("audit retention completed", ports.Int64("bytes_freed", removed))
	}
}

// rotatedLog is one rotated audit log file.
type rotatedLog struct {
	path string
	size int64
}

func auditDirSize(dir string) (int64, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// rotatedAuditLogs lists rotated log files oldest first. The active log
// is never included.
func rotatedAuditLogs(dir string) ([]rotatedLog, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	sizes := make(map[string]int64)
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "audit-") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		sizes[name] = info.Size()
	}
	sort.Strings(names)

	out := make([]rotatedLog, 0, len(names))
	for _, name := range names {
		out = append(out, rotatedLog{path: filepath.Join(dir, name), size: sizes[name]})
	}
	return out, nil
}
