package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anticipate.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Prompt == "" {
		t.Fatalf("expected default prompt to be set")
	}
	if cfg.TimeoutMillis != 5000 {
		t.Fatalf("expected default timeout 5000ms, got %d", cfg.TimeoutMillis)
	}
	if cfg.Cinema.DelayMillis != 75 {
		t.Fatalf("expected default cinema delay 75ms, got %d", cfg.Cinema.DelayMillis)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anticipate.yaml")
	yaml := "prompt: \"$ \"\ntimeout_ms: 1000\ncinema:\n  delay_ms: 40\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Prompt != "$ " {
		t.Errorf("got prompt %q", cfg.Prompt)
	}
	if cfg.TimeoutMillis != 1000 {
		t.Errorf("got timeout %d", cfg.TimeoutMillis)
	}
	if cfg.Cinema.DelayMillis != 40 {
		t.Errorf("got delay %d", cfg.Cinema.DelayMillis)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	oldwd, _ := os.Getwd()
	defer os.Chdir(oldwd)
	_ = os.Chdir(dir)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") with no file present should not error: %v", err)
	}
	if cfg.Prompt == "" {
		t.Fatalf("expected built-in defaults")
	}
}
