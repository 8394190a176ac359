package penum

import "context"

// Plugin extends an Ingress instance with optional functionality.
// Plugins are initialized in registration order when Start() is called
// and shut down in reverse order on Stop().
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize is called on Start(). The context is canceled when the
	// instance stops; long-running plugin work should watch it.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called on Stop(), in reverse registration order.
	Shutdown(ctx context.Context) error
}

// RelayController lets plugins reconfigure relay routing at runtime.
// The built-in relay transport implements it.
type RelayController interface {
	SetRelays(relays []string)
	Relays() []string
}

// PluginConfig is passed to plugins at initialization.
type PluginConfig struct {
	// Relays is the relay set configured at startup.
	Relays []string

	// AuthKey is the relay bearer token, when configured.
	AuthKey string

	// AuditDir is the audit log directory, when configured.
	AuditDir string

	// Logger is the instance logger.
	Logger Logger

	// Relay is the running relay controller. Nil when a custom transport
	// that does not support runtime relay updates is injected.
	Relay RelayController
}

// BasePlugin provides no-op implementations of Plugin methods.
// Embed it to implement only the hooks you need.
type BasePlugin struct {
	name string
}

// NewBasePlugin creates a BasePlugin with the given name.
func NewBasePlugin(name string) BasePlugin {
	return BasePlugin{name: name}
}

// Name returns the plugin identifier.
func (p BasePlugin) Name() string { return p.name }

// Initialize is a no-op.
func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }

// Shutdown is a no-op.
func (BasePlugin) Shutdown(context.Context) error { return nil }
