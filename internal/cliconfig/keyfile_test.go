package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAuthKey(t *testing.T) {
	tmpDir := t.TempDir()
	keyPath := filepath.Join(tmpDir, "penum.key")

	if err := os.WriteFile(keyPath, []byte("  file-key\n"), 0600); err != nil {
		t.Fatalf("Failed to create key file: %v", err)
	}

	cfg := Config{AuthKeyFile: keyPath}
	if err := LoadAuthKey(&cfg); err != nil {
		t.Fatalf("LoadAuthKey() error = %v", err)
	}
	if cfg.AuthKey != "file-key" {
		t.Errorf("AuthKey = %q, want file-key (trimmed)", cfg.AuthKey)
	}
}

func TestLoadAuthKey_ExplicitKeyWins(t *testing.T) {
	tmpDir := t.TempDir()
	keyPath := filepath.Join(tmpDir, "penum.key")

	if err := os.WriteFile(keyPath, []byte("file-key"), 0600); err != nil {
		t.Fatalf("Failed to create key file: %v", err)
	}

	cfg := Config{AuthKey: "explicit-key", AuthKeyFile: keyPath}
	if err := LoadAuthKey(&cfg); err != nil {
		t.Fatalf("LoadAuthKey() error = %v", err)
	}
	if cfg.AuthKey != "explicit-key" {
		t.Errorf("AuthKey = %q, want explicit-key", cfg.AuthKey)
	}
}

func TestLoadAuthKey_NoFileConfigured(t *testing.T) {
	cfg := Config{}
	if err := LoadAuthKey(&cfg); err != nil {
		t.Fatalf("LoadAuthKey() error = %v", err)
	}
	if cfg.AuthKey != "" {
		t.Errorf("AuthKey = %q, want empty", cfg.AuthKey)
	}
}

func TestLoadAuthKey_MissingFile(t *testing.T) {
	cfg := Config{AuthKeyFile: "/nonexistent/penum.key"}
	if err := LoadAuthKey(&cfg); err == nil {
		t.Error("LoadAuthKey() expected error for missing file")
	}
}

func TestLoadAuthKey_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	keyPath := filepath.Join(tmpDir, "penum.key")

	if err := os.WriteFile(keyPath, []byte("  \n"), 0600); err != nil {
		t.Fatalf("Failed to create key file: %v", err)
	}

	cfg := Config{AuthKeyFile: keyPath}
	if err := LoadAuthKey(&cfg); err == nil {
		t.Error("LoadAuthKey() expected error for empty file")
	}
}
