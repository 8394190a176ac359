package relaywatcher

import "github.com/penum-labs/penum-ingress/pkg/penum"

// WithRelayWatcher returns a penum Option that enables relay list
// watching. When enabled, the plugin monitors the configured file for
// changes and applies relay updates to the running transport.
//
// Usage:
//
//	ing, err := penum.New(cfg,
//	    relaywatcher.WithRelayWatcher(relaywatcher.Config{
//	        Path:          "/etc/penum/relays.txt",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithRelayWatcher(cfg Config) penum.Option {
	plugin := New(cfg)
	return penum.WithPlugin(plugin)
}

// WithDefaultRelayWatcher returns a penum Option that enables relay
// list watching of the given file with default settings (debounce 100ms).
//
// Usage:
//
//	ing, err := penum.New(cfg, relaywatcher.WithDefaultRelayWatcher("/etc/penum/relays.txt"))
func WithDefaultRelayWatcher(path string) penum.Option {
	cfg := DefaultConfig()
	cfg.Path = path
	return WithRelayWatcher(cfg)
}
