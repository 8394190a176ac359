package penum

import (
	"fmt"
	"net/url"
	"time"

	"github.com/penum-labs/penum-ingress/internal/domain"
	"github.com/penum-labs/penum-ingress/internal/shuffle"
)

// Default configuration values.
const (
	// DefaultMaxBatchSize is the envelope count that seals a batch.
	DefaultMaxBatchSize = 10

	// DefaultBatchTimeWindow seals a non-empty pending set once its age
	// exceeds the window.
	DefaultBatchTimeWindow = 10 * time.Second

	// DefaultPollInterval is how often the time window is checked.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultHTTPTimeout bounds each relay request.
	DefaultHTTPTimeout = 15 * time.Second
)

// DefaultRelays are the endpoints sealed batches are forwarded to when
// no relays are configured.
var DefaultRelays = []string{
	"https://relay.flashbots.net",
	"https://builder-relay.ethereum.com",
	"https://relay.ultrasound.money",
}

// Config holds the configuration for an Ingress instance.
// Zero values are replaced by defaults via SetDefaults.
type Config struct {
	// MaxBatchSize is the envelope count at which a batch seals
	// immediately. Default: DefaultMaxBatchSize.
	MaxBatchSize int

	// BatchTimeWindow seals a non-empty pending set once its age exceeds
	// the window. Default: DefaultBatchTimeWindow.
	BatchTimeWindow time.Duration

	// PollInterval is how often the time window is checked.
	// Default: DefaultPollInterval.
	PollInterval time.Duration

	// Relays are the endpoints sealed batches are forwarded to.
	// Default: DefaultRelays.
	Relays []string

	// AuthKey, when set, is sent as a bearer token on relay requests.
	AuthKey string

	// HTTPTimeout bounds each relay request. Default: DefaultHTTPTimeout.
	HTTPTimeout time.Duration

	// SeedPolicy selects how permutation seeds are produced: "derived"
	// (deterministic from the batch id) or "secret" (fresh random seed
	// per batch). Default: "derived".
	SeedPolicy string

	// StrictValidation rejects payloads that do not decode as signed
	// transactions. Default: false, any non-empty payload is accepted.
	StrictValidation bool

	// AuditDir, when set, appends commitment audit events to a JSONL
	// file in this directory.
	AuditDir string
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.BatchTimeWindow <= 0 {
		c.BatchTimeWindow = DefaultBatchTimeWindow
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if len(c.Relays) == 0 {
		c.Relays = append([]string(nil), DefaultRelays...)
	}
}

// Validate checks the configuration. Call SetDefaults first; Validate
// rejects zero values it would otherwise have filled.
func (c *Config) Validate() error {
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("%w: max batch size must be positive", domain.ErrInvalidConfig)
	}
	if c.BatchTimeWindow <= 0 {
		return fmt.Errorf("%w: batch time window must be positive", domain.ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", domain.ErrInvalidConfig)
	}
	if len(c.Relays) == 0 {
		return fmt.Errorf("%w: at least one relay is required", domain.ErrInvalidConfig)
	}
	for _, relay := range c.Relays {
		u, err := url.Parse(relay)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%w: invalid relay URL %q", domain.ErrInvalidConfig, relay)
		}
	}
	if _, err := shuffle.PolicyByName(c.SeedPolicy); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return nil
}
