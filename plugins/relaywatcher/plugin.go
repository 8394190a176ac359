// Package relaywatcher provides relay list monitoring for penum.
// When enabled, it watches a relay list file for changes and applies
// updates to the running transport without a restart.
package relaywatcher

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/penum-labs/penum-ingress/pkg/penum"
)

// Plugin implements relay list watching functionality.
// It monitors a relay list file (one URL per line, '#' starts a
// comment) and updates the transport's relay set when it changes.
type Plugin struct {
	mu sync.RWMutex

	// Configuration
	path          string
	debounceDelay time.Duration

	// Runtime state
	relay    penum.RelayController
	logger   penum.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the relay watcher plugin.
type Config struct {
	// Path is the relay list file to watch. Required.
	Path string

	// DebounceDelay is the delay to wait after a file change before
	// applying the update. Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults. Path must
// still be set before the plugin does anything.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new relay watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}

	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "relaywatcher"
}

// Initialize sets up the plugin and starts the relay list watcher.
func (p *Plugin) Initialize(ctx context.Context, cfg penum.PluginConfig) error {
	p.mu.Lock()
	p.relay = cfg.Relay
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.path == "" || p.relay == nil {
		p.logger.Warn("Relay watcher disabled: path or relay controller not configured")
		return nil
	}

	// Create cancellable context for the watcher loop
	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("Relay watcher plugin initialized")

	// Start watcher loop
	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the relay list watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// watchLoop watches for relay list file changes. The parent directory
// is watched rather than the file itself so atomic rename-into-place
// saves are observed.
func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Error("Relay watcher: failed to create watcher")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		p.logger.Error("Relay watcher: failed to watch directory")
		// Still try to apply the initial relay list
		p.applyRelayFile()
		return
	}

	// Apply initial relay list
	p.applyRelayFile()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(p.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceApply(p.debounceDelay)

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("Relay watcher: watcher error")
		}
	}
}

func (p *Plugin) debounceApply(delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(delay, p.applyRelayFile)
}

// applyRelayFile reads and applies the relay list. Invalid files leave
// the current relay set untouched.
func (p *Plugin) applyRelayFile() {
	relays, err := ParseRelayFile(p.path)
	if err != nil {
		p.logger.Warn("Relay watcher: ignoring invalid relay file")
		return
	}

	p.relay.SetRelays(relays)
	p.logger.Info("Relay watcher: applied relay update")
}

// ParseRelayFile reads a relay list file and returns the relay URLs it
// contains. Blank lines and lines starting with '#' are skipped. Every
// remaining line must be a valid http or https URL, and at least one
// relay must remain.
func ParseRelayFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var relays []string
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("line %d: invalid relay url %q", i+1, line)
		}
		relays = append(relays, line)
	}

	if len(relays) == 0 {
		return nil, fmt.Errorf("no relays in %s", path)
	}
	return relays, nil
}

// Ensure Plugin implements penum.Plugin.
var _ penum.Plugin = (*Plugin)(nil)
