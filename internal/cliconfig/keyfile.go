package cliconfig

import (
	"fmt"
	"os"
	"strings"
)

// LoadAuthKey fills AuthKey from AuthKeyFile when no key was given
// directly. A key file holds a single token; surrounding whitespace and
// a trailing newline are ignored. Key files are how secret mounts hand
// the relay credential to the process without putting it in the
// environment or the command line.
func LoadAuthKey(cfg *Config) error {
	if cfg.AuthKey != "" || cfg.AuthKeyFile == "" {
		return nil
	}

	b, err := os.ReadFile(cfg.AuthKeyFile)
	if err != nil {
		return fmt.Errorf("read auth key: %w", err)
	}

	key := strings.TrimSpace(string(b))
	if key == "" {
		return fmt.Errorf("auth key file %s is empty", cfg.AuthKeyFile)
	}

	cfg.AuthKey = key
	return nil
}
