package cliconfig

import (
	"os"
	"strings"
)

// ApplyEnvConfig applies PENUM_* environment variables to the config.
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setStrings("relays", splitList(os.Getenv("PENUM_RELAYS")), &cfg.Relays)
	s.setString("relays-file", os.Getenv("PENUM_RELAYS_FILE"), &cfg.RelaysFile)
	s.setString("auth-key", os.Getenv("PENUM_AUTH_KEY"), &cfg.AuthKey)
	s.setString("auth-key-file", os.Getenv("PENUM_AUTH_KEY_FILE"), &cfg.AuthKeyFile)
	s.setString("seed-policy", os.Getenv("PENUM_SEED_POLICY"), &cfg.SeedPolicy)
	s.setString("audit-dir", os.Getenv("PENUM_AUDIT_DIR"), &cfg.AuditDir)
	s.setString("listen-host", os.Getenv("PENUM_LISTEN_HOST"), &cfg.ListenHost)

	if err := s.setDuration("batch-window", os.Getenv("PENUM_BATCH_WINDOW"), &cfg.BatchTimeWindow); err != nil {
		return err
	}
	if err := s.setDuration("poll", os.Getenv("PENUM_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("PENUM_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("max-batch-size", os.Getenv("PENUM_MAX_BATCH_SIZE"), &cfg.MaxBatchSize); err != nil {
		return err
	}
	if err := s.setIntFromString("listen-port", os.Getenv("PENUM_LISTEN_PORT"), &cfg.ListenPort); err != nil {
		return err
	}
	if err := s.setIntFromString("rate-limit", os.Getenv("PENUM_RATE_LIMIT"), &cfg.RequestsPerSecond); err != nil {
		return err
	}
	if err := s.setIntFromString("rate-burst", os.Getenv("PENUM_RATE_BURST"), &cfg.RateBurst); err != nil {
		return err
	}
	if err := s.setIntFromString("max-body-bytes", os.Getenv("PENUM_MAX_BODY_BYTES"), &cfg.MaxBodyBytes); err != nil {
		return err
	}

	if err := s.setFloatFromString("shed-threshold", os.Getenv("PENUM_SHED_THRESHOLD"), &cfg.ShedThreshold); err != nil {
		return err
	}

	s.setBoolFromString("strict", os.Getenv("PENUM_STRICT_VALIDATION"), &cfg.StrictValidation)

	return nil
}

// splitList splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
