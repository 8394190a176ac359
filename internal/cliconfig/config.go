package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultListenPort is the default port for the ingress HTTP API.
const DefaultListenPort = 18550

// Config holds CLI configuration for penumd.
type Config struct {
	Relays     []string
	RelaysFile string

	AuthKey     string
	AuthKeyFile string

	MaxBatchSize    int
	BatchTimeWindow time.Duration
	PollInterval    time.Duration
	HTTPTimeout     time.Duration

	SeedPolicy       string
	StrictValidation bool

	AuditDir string

	ListenHost        string
	ListenPort        int
	RequestsPerSecond int
	RateBurst         int
	MaxBodyBytes      int

	ShedThreshold float64
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxBatchSize:      10,
		BatchTimeWindow:   10 * time.Second,
		PollInterval:      500 * time.Millisecond,
		HTTPTimeout:       15 * time.Second,
		SeedPolicy:        "derived",
		ListenHost:        "127.0.0.1",
		ListenPort:        DefaultListenPort,
		RequestsPerSecond: 50,
		RateBurst:         100,
		MaxBodyBytes:      1 << 20, // 1MB
		ShedThreshold:     0.85,
		AuthKey:           os.Getenv("PENUM_AUTH_KEY"),
	}
}

// Validate checks the configuration for errors and sets derived defaults.
// Relay URLs themselves are validated by the ingress library; leaving
// Relays empty selects its built-in relay set.
func (c *Config) Validate() error {
	// Ensure no trailing slash
	for i, r := range c.Relays {
		if len(r) > 0 && r[len(r)-1] == '/' {
			c.Relays[i] = r[:len(r)-1]
		}
	}

	if c.SeedPolicy == "" {
		c.SeedPolicy = "derived"
	}
	if c.ListenHost == "" {
		c.ListenHost = "127.0.0.1"
	}

	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive")
	}
	if c.BatchTimeWindow <= 0 {
		return fmt.Errorf("batch window must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1 and 65535")
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a string slice if non-empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
