package cliconfig

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxBatchSize != 10 {
		t.Errorf("MaxBatchSize = %v, want 10", cfg.MaxBatchSize)
	}
	if cfg.BatchTimeWindow != 10*time.Second {
		t.Errorf("BatchTimeWindow = %v, want 10s", cfg.BatchTimeWindow)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.PollInterval)
	}
	if cfg.ListenPort != DefaultListenPort {
		t.Errorf("ListenPort = %v, want %v", cfg.ListenPort, DefaultListenPort)
	}
	if cfg.SeedPolicy != "derived" {
		t.Errorf("SeedPolicy = %v, want derived", cfg.SeedPolicy)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("MaxBodyBytes = %v, want 1MB", cfg.MaxBodyBytes)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name           string
		config         Config
		wantErr        bool
		wantSeedPolicy string
	}{
		{
			name: "valid minimal config",
			config: Config{
				Relays:          []string{"https://relay.example.com"},
				MaxBatchSize:    10,
				BatchTimeWindow: time.Second,
				PollInterval:    100 * time.Millisecond,
				ListenPort:      18550,
			},
			wantErr: false,
		},
		{
			name: "no relays is valid, library defaults apply",
			config: Config{
				MaxBatchSize:    10,
				BatchTimeWindow: time.Second,
				PollInterval:    100 * time.Millisecond,
				ListenPort:      18550,
			},
			wantErr: false,
		},
		{
			name: "seed policy defaults when omitted",
			config: Config{
				Relays:          []string{"https://relay.example.com"},
				MaxBatchSize:    10,
				BatchTimeWindow: time.Second,
				PollInterval:    100 * time.Millisecond,
				ListenPort:      18550,
			},
			wantErr:        false,
			wantSeedPolicy: "derived",
		},
		{
			name: "invalid max batch size",
			config: Config{
				Relays:          []string{"https://relay.example.com"},
				MaxBatchSize:    0,
				BatchTimeWindow: time.Second,
				PollInterval:    100 * time.Millisecond,
				ListenPort:      18550,
			},
			wantErr: true,
		},
		{
			name: "invalid batch window",
			config: Config{
				Relays:          []string{"https://relay.example.com"},
				MaxBatchSize:    10,
				BatchTimeWindow: -1,
				PollInterval:    100 * time.Millisecond,
				ListenPort:      18550,
			},
			wantErr: true,
		},
		{
			name: "invalid poll interval",
			config: Config{
				Relays:          []string{"https://relay.example.com"},
				MaxBatchSize:    10,
				BatchTimeWindow: time.Second,
				PollInterval:    -1,
				ListenPort:      18550,
			},
			wantErr: true,
		},
		{
			name: "listen port out of range",
			config: Config{
				Relays:          []string{"https://relay.example.com"},
				MaxBatchSize:    10,
				BatchTimeWindow: time.Second,
				PollInterval:    100 * time.Millisecond,
				ListenPort:      70000,
			},
			wantErr: true,
		},
		{
			name: "listen port zero",
			config: Config{
				Relays:          []string{"https://relay.example.com"},
				MaxBatchSize:    10,
				BatchTimeWindow: time.Second,
				PollInterval:    100 * time.Millisecond,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.wantSeedPolicy != "" && tt.config.SeedPolicy != tt.wantSeedPolicy {
				t.Errorf("SeedPolicy = %v, want %v", tt.config.SeedPolicy, tt.wantSeedPolicy)
			}
		})
	}
}

func TestConfig_Validate_Derivations(t *testing.T) {
	// Trailing slashes are stripped from relay URLs
	c1 := Config{
		Relays:          []string{"https://relay-a.example.com/", "https://relay-b.example.com"},
		MaxBatchSize:    10,
		BatchTimeWindow: time.Second,
		PollInterval:    100 * time.Millisecond,
		ListenPort:      18550,
	}
	if err := c1.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c1.Relays[0] != "https://relay-a.example.com" {
		t.Errorf("Relays[0] = %v, want trailing slash stripped", c1.Relays[0])
	}
	if c1.Relays[1] != "https://relay-b.example.com" {
		t.Errorf("Relays[1] = %v, want unchanged", c1.Relays[1])
	}

	// ListenHost defaults when omitted
	c2 := Config{
		MaxBatchSize:    10,
		BatchTimeWindow: time.Second,
		PollInterval:    100 * time.Millisecond,
		ListenPort:      18550,
	}
	if err := c2.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c2.ListenHost != "127.0.0.1" {
		t.Errorf("ListenHost = %v, want 127.0.0.1", c2.ListenHost)
	}

	// Explicit ListenHost is respected
	c3 := Config{
		MaxBatchSize:    10,
		BatchTimeWindow: time.Second,
		PollInterval:    100 * time.Millisecond,
		ListenHost:      "0.0.0.0",
		ListenPort:      18550,
	}
	if err := c3.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c3.ListenHost != "0.0.0.0" {
		t.Errorf("ListenHost = %v, want 0.0.0.0", c3.ListenHost)
	}
}
