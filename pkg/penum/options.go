package penum

import (
	"net/http"
	"time"

	"github.com/penum-labs/penum-ingress/internal/ports"
	"github.com/penum-labs/penum-ingress/internal/shuffle"
	"github.com/penum-labs/penum-ingress/pkg/log"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
// Deprecated: Use github.com/penum-labs/penum-ingress/pkg/log.Logger instead.
type Logger = ports.Logger

// LogField represents a structured log field.
// Deprecated: Use github.com/penum-labs/penum-ingress/pkg/log.Field instead.
type LogField = ports.Field

// Re-export types from sub-packages for convenient access.
// Users can also import sub-packages directly for selective import.
type (
	// ModularLogger is the Logger interface from pkg/log.
	ModularLogger = log.Logger

	// ModularField is the Field type from pkg/log.
	ModularField = log.Field
)

// Transport forwards sealed batches to relays. The built-in HTTP relay
// transport is used unless one is injected with WithTransport.
type Transport = ports.Transport

// MetricsSink receives pipeline observations.
type MetricsSink = ports.MetricsSink

// AuditSink receives commitment lifecycle events.
type AuditSink = ports.AuditSink

// SeedPolicy produces the permutation seed for each sealed batch.
type SeedPolicy = shuffle.SeedPolicy

// PayloadValidator vets payloads before they enter a batch.
type PayloadValidator = ports.PayloadValidator

// Option configures optional behavior of an Ingress instance.
type Option func(*options)

// options holds the optional configuration for an Ingress instance.
type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	eventHandler EventHandler
	plugins      []Plugin

	transport   ports.Transport
	metricsSink ports.MetricsSink
	auditSink   ports.AuditSink
	seedPolicy  shuffle.SeedPolicy
	validator   ports.PayloadValidator
	clock       func() time.Time

	loadSheddingConfig *LoadSheddingConfig
	retentionConfig    *AuditRetentionConfig
}

// defaultOptions returns options with sensible defaults.
func defaultOptions(client *http.Client) options {
	return options{
		httpClient:   client,
		logger:       &noopLogger{},
		eventHandler: nil,
		plugins:      nil,
	}
}

// WithHTTPClient sets a custom HTTP client for relay communication.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for ingress events.
// Events are called synchronously from the pipeline goroutine.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the instance
// starts. Plugins are initialized in registration order and shut down in
// reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithTransport replaces the built-in HTTP relay transport.
// Config.Relays and Config.AuthKey are ignored when a custom transport
// is injected.
func WithTransport(transport Transport) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithMetricsSink sets the sink for pipeline observations.
// If not provided, an in-memory collector is used and exposed through
// MetricsSnapshot.
func WithMetricsSink(sink MetricsSink) Option {
	return func(o *options) {
		o.metricsSink = sink
	}
}

// WithAuditSink sets the sink for commitment lifecycle events.
// If not provided, events are written to the instance log.
func WithAuditSink(sink AuditSink) Option {
	return func(o *options) {
		o.auditSink = sink
	}
}

// WithSeedPolicy overrides the permutation seed policy selected by
// Config.SeedPolicy.
func WithSeedPolicy(policy SeedPolicy) Option {
	return func(o *options) {
		o.seedPolicy = policy
	}
}

// WithPayloadValidator overrides the payload validator selected by
// Config.StrictValidation.
func WithPayloadValidator(validator PayloadValidator) Option {
	return func(o *options) {
		o.validator = validator
	}
}

// WithClock sets the time source used for envelope arrival stamps and
// window checks. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// noopLogger discards all log messages.
type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...ports.Field) {}
func (noopLogger) Info(msg string, fields ...ports.Field)  {}
func (noopLogger) Warn(msg string, fields ...ports.Field)  {}
func (noopLogger) Error(msg string, fields ...ports.Field) {}
