package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "yolla.toml"))
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d, want 4", cfg.MaxConcurrent)
	}
	if cfg.StrictAgents {
		t.Error("StrictAgents should default to false")
	}
	if cfg.Model != "" {
		t.Errorf("Model = %q, want empty", cfg.Model)
	}
}

func TestLoadConfig_ParsesAllFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yolla.toml")
	content := `
model = "claude-sonnet-4-5-20250929"
system_prompt = "You are the conductor."
max_concurrent = 8
strict_agents = true
default_command = "agent-shell"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.SystemPrompt != "You are the conductor." {
		t.Errorf("SystemPrompt = %q", cfg.SystemPrompt)
	}
	if cfg.MaxConcurrent != 8 {
		t.Errorf("MaxConcurrent = %d, want 8", cfg.MaxConcurrent)
	}
	if !cfg.StrictAgents {
		t.Error("StrictAgents = false, want true")
	}
	if cfg.DefaultCommand != "agent-shell" {
		t.Errorf("DefaultCommand = %q", cfg.DefaultCommand)
	}
}

func TestLoadConfig_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yolla.toml")
	if err := os.WriteFile(path, []byte("model = [broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestLoadConfig_ZeroConcurrencyFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yolla.toml")
	if err := os.WriteFile(path, []byte("max_concurrent = 0"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d, want fallback 4", cfg.MaxConcurrent)
	}
}
