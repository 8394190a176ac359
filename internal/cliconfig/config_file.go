package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Relays            []string `toml:"relays"`
	RelaysFile        string   `toml:"relays_file"`
	AuthKey           string   `toml:"auth_key"`
	AuthKeyFile       string   `toml:"auth_key_file"`
	MaxBatchSize      int      `toml:"max_batch_size"`
	BatchTimeWindow   string   `toml:"batch_window"`
	PollInterval      string   `toml:"poll_interval"`
	HTTPTimeout       string   `toml:"http_timeout"`
	SeedPolicy        string   `toml:"seed_policy"`
	StrictValidation  *bool    `toml:"strict_validation"`
	AuditDir          string   `toml:"audit_dir"`
	ListenHost        string   `toml:"listen_host"`
	ListenPort        int      `toml:"listen_port"`
	RequestsPerSecond int      `toml:"rate_limit"`
	RateBurst         int      `toml:"rate_burst"`
	MaxBodyBytes      int      `toml:"max_body_bytes"`
	ShedThreshold     float64  `toml:"shed_threshold"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.penum/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".penum", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setStrings("relays", fc.Relays, &cfg.Relays)
	s.setString("relays-file", fc.RelaysFile, &cfg.RelaysFile)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("auth-key-file", fc.AuthKeyFile, &cfg.AuthKeyFile)
	s.setString("seed-policy", fc.SeedPolicy, &cfg.SeedPolicy)
	s.setString("audit-dir", fc.AuditDir, &cfg.AuditDir)
	s.setString("listen-host", fc.ListenHost, &cfg.ListenHost)

	if err := s.setDuration("batch-window", fc.BatchTimeWindow, &cfg.BatchTimeWindow); err != nil {
		return err
	}
	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setInt("max-batch-size", fc.MaxBatchSize, &cfg.MaxBatchSize)
	s.setInt("listen-port", fc.ListenPort, &cfg.ListenPort)
	s.setInt("rate-limit", fc.RequestsPerSecond, &cfg.RequestsPerSecond)
	s.setInt("rate-burst", fc.RateBurst, &cfg.RateBurst)
	s.setInt("max-body-bytes", fc.MaxBodyBytes, &cfg.MaxBodyBytes)

	s.setFloat("shed-threshold", fc.ShedThreshold, &cfg.ShedThreshold)

	s.setBool("strict", fc.StrictValidation, &cfg.StrictValidation)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
